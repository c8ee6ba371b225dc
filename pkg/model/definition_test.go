package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/oidcast/pkg/objectid"
	"github.com/ssargent/oidcast/pkg/schema"
)

func TestDefinition_CreatingDedupByIdentity(t *testing.T) {
	def, err := Define(catsTable())
	require.NoError(t, err)

	assert.True(t, def.Creating(objectid.DefaultAssigner("id")))
	assert.False(t, def.Creating(objectid.DefaultAssigner("id")))
	assert.True(t, def.Creating(objectid.DefaultAssigner("owner_id")))
	assert.Len(t, def.Hooks(), 2)
}

func TestForTable(t *testing.T) {
	def, err := ForTable(catsTable())
	require.NoError(t, err)

	require.Len(t, def.Hooks(), 1)
	assert.Same(t, objectid.DefaultAssigner("id"), def.Hooks()[0])
	assert.NotNil(t, def.caster("id"))
	assert.NotNil(t, def.caster("owner_id"))
	assert.Nil(t, def.caster("name"))

	again, err := ForTable(catsTable())
	require.NoError(t, err)
	assert.Same(t, def.Hooks()[0], again.Hooks()[0])
}

func TestDefine_Invalid(t *testing.T) {
	_, err := Define(schema.Table{Name: "empty"})
	assert.Error(t, err)

	def, err := Define(catsTable())
	require.NoError(t, err)
	assert.Error(t, def.Cast("missing", objectid.Cast{}))
}

func TestRecord_Forms(t *testing.T) {
	def, err := ForTable(catsTable())
	require.NoError(t, err)
	id := objectid.New()

	rec := def.New()
	require.NoError(t, rec.Fill(map[string]any{"id": id, "name": "Luna"}))

	assert.Equal(t, objectid.Binary(id), rec.Raw("id"), "stored in binary form")
	assert.Equal(t, id, rec.Get("id"), "read in runtime form")
	assert.Nil(t, rec.Get("owner_id"))
	assert.False(t, rec.Exists())

	attrs := rec.Attributes()
	assert.Equal(t, id, attrs["id"])
	assert.Equal(t, "Luna", attrs["name"])

	ser := rec.Serialize()
	assert.Equal(t, objectid.Binary(id), ser["id"])
	assert.Equal(t, "Luna", ser["name"])
	assert.Nil(t, ser["owner_id"])

	rec.Set("owner_id", id.Hex())
	assert.Nil(t, rec.Raw("owner_id"), "only identifier instances are encoded")
}

func TestRecord_HookIdempotent(t *testing.T) {
	def, err := ForTable(catsTable())
	require.NoError(t, err)

	rec := def.New()
	hook := def.Hooks()[0]
	hook.Apply(rec)
	first := rec.Get("id")
	require.NotNil(t, first)
	hook.Apply(rec)
	assert.Equal(t, first, rec.Get("id"))
}
