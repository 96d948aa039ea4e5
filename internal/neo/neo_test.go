// Public domain.

package neo_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neotonight/internal/neo"
)

func TestMergeKeepsExisting(t *testing.T) {
	a := &neo.Target{
		Designation: "P21xyz",
		Source:      "neocp",
		NEOScore:    neo.Float(85),
		NObs:        12,
	}
	b := &neo.Target{
		Designation: "P21xyz",
		Source:      "scout",
		NEOScore:    neo.Float(40),
		PHAScore:    neo.Float(10),
		NObs:        9,
		ArcDays:     1.5,
	}
	a.Merge(b)

	assert.Equal(t, 85., *a.NEOScore, "set field must not be overwritten")
	assert.Equal(t, 12, a.NObs)
	require.NotNil(t, a.PHAScore)
	assert.Equal(t, 10., *a.PHAScore, "nil field takes the other feed's value")
	assert.Equal(t, 1.5, a.ArcDays, "zero counter takes the other feed's value")
}

func TestMergeAccumulatesRaw(t *testing.T) {
	a := &neo.Target{Designation: "X", Source: "neocp"}
	a.Merge(&neo.Target{
		Designation: "X",
		Source:      "scout",
		Raw:         map[string]any{"neoScore": 90.},
	})
	a.Merge(&neo.Target{
		Designation: "X",
		Source:      "sentry",
		Raw:         map[string]any{"ip": "1e-5"},
	})

	enr, ok := a.Raw["_enrichment"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, enr, "scout")
	assert.Contains(t, enr, "sentry")
}

func TestCloneIsolation(t *testing.T) {
	now := time.Now().UTC()
	orig := &neo.Target{
		Designation: "C34UKE1",
		MagV:        neo.Float(19.2),
		Epoch:       &now,
		Raw:         map[string]any{"k": "v"},
	}
	c := orig.Clone()
	*c.MagV = 12
	*c.Epoch = now.Add(time.Hour)
	c.Raw["k"] = "changed"
	c.NObs = 99

	assert.Equal(t, 19.2, *orig.MagV)
	assert.Equal(t, now, *orig.Epoch)
	assert.Equal(t, "v", orig.Raw["k"])
	assert.Equal(t, 0, orig.NObs)
}

func TestCloneAll(t *testing.T) {
	ts := []*neo.Target{
		{Designation: "A", MagV: neo.Float(18)},
		{Designation: "B"},
	}
	cs := neo.CloneAll(ts)
	require.Len(t, cs, 2)
	*cs[0].MagV = 1
	assert.Equal(t, 18., *ts[0].MagV)
}

func TestPositionPrefersPrediction(t *testing.T) {
	tgt := &neo.Target{}
	_, _, ok := tgt.Position()
	assert.False(t, ok)

	tgt.RADeg = neo.Float(10)
	tgt.DecDeg = neo.Float(-5)
	ra, dec, ok := tgt.Position()
	require.True(t, ok)
	assert.Equal(t, 10., ra)
	assert.Equal(t, -5., dec)

	tgt.PredictedRADeg = neo.Float(10.2)
	tgt.PredictedDecDeg = neo.Float(-5.1)
	ra, dec, ok = tgt.Position()
	require.True(t, ok)
	assert.Equal(t, 10.2, ra)
	assert.Equal(t, -5.1, dec)
}
