package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/oidcast/pkg/codec"
	"github.com/ssargent/oidcast/pkg/objectid"
	"github.com/ssargent/oidcast/pkg/schema"
	"github.com/ssargent/oidcast/pkg/store"
)

var cats = schema.Create("cats", func(b *schema.Blueprint) {
	b.ObjectID("id").Primary()
	b.String("name")
	b.Int64("lives")
})

type fixture struct {
	engine *Engine
	ids    []objectid.ID
}

// setup stores Mittens, Bella and Shadow with identifiers five minutes apart.
func setup(t *testing.T) fixture {
	t.Helper()
	s, err := store.Open(store.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ref := time.Now().Add(-24 * time.Hour)
	f := fixture{engine: NewEngine(s)}
	for i, name := range []string{"Mittens", "Bella", "Shadow"} {
		id := objectid.FromTime(ref.Add(time.Duration(i+1) * 5 * time.Minute))
		f.ids = append(f.ids, id)
		cells := []codec.Cell{
			codec.Bytes("id", objectid.Binary(id)),
			codec.String("name", name),
			codec.Int64("lives", int64(9-i)),
		}
		require.NoError(t, s.Insert(context.Background(), "cats", objectid.Binary(id), cells))
	}
	return f
}

func (f fixture) count(t *testing.T, preds ...Predicate) int {
	t.Helper()
	n, err := f.engine.Count(context.Background(), cats, preds...)
	require.NoError(t, err)
	return n
}

func names(results []Result) []string {
	var out []string
	for _, r := range results {
		out = append(out, r.Values["name"].(string))
	}
	return out
}

func TestEngine_PrimaryKeyRanges(t *testing.T) {
	f := setup(t)
	id2, id3 := f.ids[1], f.ids[2]

	found, err := f.engine.Find(context.Background(), cats, Where("id", OpGreater, objectid.Val(id2)))
	require.NoError(t, err)
	assert.Equal(t, []string{"Shadow"}, names(found))

	assert.Equal(t, 1, f.count(t, Where("id", OpGreater, objectid.Val(id2))))
	assert.Equal(t, 2, f.count(t, Where("id", OpGreaterEq, objectid.Val(id2))))
	assert.Equal(t, 3, f.count(t, Where("id", OpLessEq, objectid.Val(id3))))
	assert.Equal(t, 2, f.count(t, Where("id", OpLess, objectid.Val(id3))))
	assert.Equal(t, 1, f.count(t,
		Where("id", OpGreater, objectid.Val(f.ids[0])),
		Where("id", OpLess, objectid.Val(id3)),
	))
}

func TestEngine_ResultsInKeyOrder(t *testing.T) {
	f := setup(t)
	found, err := f.engine.Find(context.Background(), cats)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mittens", "Bella", "Shadow"}, names(found))
	assert.Equal(t, objectid.Binary(f.ids[0]), found[0].Key)
}

func TestEngine_TimeBoundary(t *testing.T) {
	f := setup(t)
	since := objectid.FromTime(time.Now().Add(-24*time.Hour + 7*time.Minute))
	assert.Equal(t, 2, f.count(t, Where("id", OpGreaterEq, objectid.Normalize(since))))
}

func TestEngine_Equality(t *testing.T) {
	f := setup(t)

	assert.Equal(t, 1, f.count(t, Where("id", OpEqual, objectid.Normalize(f.ids[1].Hex()))))
	assert.Equal(t, 0, f.count(t, Where("id", OpEqual, objectid.Val(objectid.New()))))
	assert.Equal(t, 0, f.count(t, Where("id", OpEqual, objectid.Normalize("not-an-id"))))
	assert.Equal(t, 0, f.count(t,
		Where("id", OpEqual, objectid.Val(f.ids[1])),
		Where("id", OpEqual, objectid.Val(f.ids[2])),
	))
}

func TestEngine_InMixedBatch(t *testing.T) {
	f := setup(t)
	values := objectid.NormalizeAll([]any{objectid.Binary(f.ids[0]), f.ids[1].Hex(), "not-an-id"})

	found, err := f.engine.Find(context.Background(), cats, In("id", values...))
	require.NoError(t, err)
	assert.Equal(t, []string{"Mittens", "Bella"}, names(found))

	assert.Equal(t, 0, f.count(t, In("name", values...)), "binary values never match text")
	assert.Equal(t, 1, f.count(t, In("name", objectid.NormalizeAll([]any{"Shadow", "not-an-id"})...)))
	assert.Equal(t, 0, f.count(t, In("id", "not-an-id", 42)))
}

func TestEngine_OtherColumns(t *testing.T) {
	f := setup(t)

	assert.Equal(t, 1, f.count(t, Where("name", OpEqual, "Bella")))
	assert.Equal(t, 2, f.count(t, Where("name", OpGreater, "Luna")))
	assert.Equal(t, 2, f.count(t, Where("lives", OpGreaterEq, 8)))
	assert.Equal(t, 1, f.count(t,
		Where("lives", OpGreaterEq, 8),
		Where("id", OpGreater, objectid.Val(f.ids[0])),
	))
}

func TestEngine_Errors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.engine.Find(ctx, cats, Where("color", OpEqual, "black"))
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = f.engine.Find(ctx, cats, Where("id", "~", "x"))
	assert.ErrorIs(t, err, ErrInvalidOperator)

	loose := schema.Create("loose", func(b *schema.Blueprint) { b.String("name") })
	_, err = f.engine.Find(ctx, loose)
	assert.ErrorIs(t, err, schema.ErrNoPrimaryKey)
}

func TestPlanKeys(t *testing.T) {
	a, b := []byte{1}, []byte{2}

	plan := planKeys("id", []Predicate{Where("id", OpGreaterEq, a), Where("id", OpGreater, a)})
	require.NotNil(t, plan.rng.Lower)
	assert.False(t, plan.rng.Lower.Inclusive, "exclusive bound is tighter")

	plan = planKeys("id", []Predicate{Where("id", OpLess, b), Where("id", OpLessEq, a)})
	require.NotNil(t, plan.rng.Upper)
	assert.Equal(t, a, plan.rng.Upper.Key)

	plan = planKeys("id", []Predicate{In("id", b, a, b), In("id", b)})
	assert.Equal(t, [][]byte{b}, plan.points)

	plan = planKeys("id", []Predicate{Where("name", OpEqual, "x")})
	assert.Nil(t, plan.points)
	assert.False(t, plan.empty)

	assert.True(t, planKeys("id", []Predicate{Where("id", OpGreater, "x")}).empty)
}
