package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresets_Shape(t *testing.T) {
	names := PresetNames()
	require.Contains(t, names, DefaultPreset)
	require.Len(t, names, 7)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			m, err := Preset(name)
			require.NoError(t, err)
			require.NoError(t, m.Validate())
			for r := 0; r < PhysicalRows; r++ {
				assert.Equal(t, len(m[r]), len(m[r+PhysicalRows]), "row %d", r)
			}
			assert.Len(t, m[RowUpper], 13)
			assert.Len(t, m[RowHome], 11)
			assert.Len(t, m[RowLower], 10)
		})
	}
}

func TestPreset_Unknown(t *testing.T) {
	_, err := Preset("dvorak")
	assert.ErrorIs(t, err, ErrUnknownPreset)
	assert.Panics(t, func() { MustLoad("dvorak") })
}

func TestPreset_ReturnsCopy(t *testing.T) {
	a, err := Preset(DefaultPreset)
	require.NoError(t, err)
	a[2][0] = 'x'
	b, err := Preset(DefaultPreset)
	require.NoError(t, err)
	assert.NotEqual(t, 'x', b[2][0])
}

func TestFile_RoundTrip(t *testing.T) {
	m, err := Preset("kedmanee")
	require.NoError(t, err)
	l, err := New("kedmanee", m, LockRows(m, RowNumber, 4))
	require.NoError(t, err)
	src := FileFromLayout(l)

	for _, ext := range []string{".toml", ".json", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "kedmanee"+ext)
			require.NoError(t, WriteFile(path, src))

			got, err := ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, src.Name, got.Name)
			if diff := cmp.Diff(src.Rows, got.Rows); diff != "" {
				t.Errorf("rows differ (-want +got):\n%s", diff)
			}

			back, err := got.Layout()
			require.NoError(t, err)
			assert.True(t, back.Matrix().Equal(m))
			assert.True(t, back.IsLocked(Position{Row: 0, Column: 3}))
			assert.True(t, back.IsLocked(Position{Row: 4, Column: 11}))
			assert.False(t, back.IsLocked(Position{Row: 2, Column: 3}))
		})
	}
}

func TestFileFromLayout_OmitsEmptyMask(t *testing.T) {
	f := FileFromLayout(pattachote(t))
	assert.Nil(t, f.Locked)
	assert.Len(t, f.Rows, Rows)
	assert.Equal(t, "๛", f.Rows[0][0])
}

func TestFile_SchemaRejects(t *testing.T) {
	valid := func() *File { return FileFromLayout(pattachote(t)) }

	tests := []struct {
		name   string
		mutate func(f *File)
	}{
		{"missing name", func(f *File) { f.Name = "" }},
		{"name with spaces", func(f *File) { f.Name = "my layout" }},
		{"seven rows", func(f *File) { f.Rows = f.Rows[:7] }},
		{"two characters in one key", func(f *File) { f.Rows[1][0] = "กา" }},
		{"empty key", func(f *File) { f.Rows[1][0] = "" }},
		{"row too wide", func(f *File) {
			for i := 0; i < 3; i++ {
				f.Rows[1] = append(f.Rows[1], "x")
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid()
			tt.mutate(f)
			assert.ErrorIs(t, f.Validate(), ErrInvalidFile)
		})
	}
}

func TestFile_ShapeMismatchPassesSchema(t *testing.T) {
	f := FileFromLayout(pattachote(t))
	f.Rows[5] = f.Rows[5][:4]
	assert.ErrorIs(t, f.Validate(), ErrShapeMismatch)
}

func TestReadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadFile(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"name": "x", "rows": [], "extra": 1}`), 0644))
	_, err = ReadFile(bad)
	assert.ErrorIs(t, err, ErrInvalidFile)

	garbled := filepath.Join(dir, "garbled.toml")
	require.NoError(t, os.WriteFile(garbled, []byte("name = ["), 0644))
	_, err = ReadFile(garbled)
	assert.Error(t, err)
}
