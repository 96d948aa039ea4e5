// Public domain.

package main

import "neotonight/internal/planner"

func main() {
	planner.Main()
}
