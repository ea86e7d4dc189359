package teas

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mesh-intelligence/caddy/internal/jsonfile"
	"github.com/mesh-intelligence/caddy/pkg/types"
)

// fakeStore records calls and returns canned answers.
type fakeStore struct {
	existing *types.Tea
	newID    int64
	saveErr  error

	lookups      []string
	generateCall int
	saved        []types.Tea
}

func (f *fakeStore) GetByName(name string) (types.Tea, bool, error) {
	f.lookups = append(f.lookups, name)
	if f.existing == nil {
		return types.Tea{}, false, nil
	}
	return *f.existing, true, nil
}

func (f *fakeStore) GenerateNewID() (int64, error) {
	f.generateCall++
	return f.newID, nil
}

func (f *fakeStore) Save(tea types.Tea) error {
	f.saved = append(f.saved, tea)
	return f.saveErr
}

func TestAddTeaInsertsNewTea(t *testing.T) {
	store := &fakeStore{newID: 1001}
	input := types.TeaInput{Name: "Thé Blanc", Description: "Un thé blanc"}

	result := New(store).AddTea(input)

	assert.Equal(t, Result{Success: true}, result)
	assert.Equal(t, []string{"Thé Blanc"}, store.lookups)
	assert.Equal(t, 1, store.generateCall)
	assert.Equal(t, []types.Tea{{ID: 1001, Name: "Thé Blanc", Description: "Un thé blanc"}}, store.saved)
}

func TestAddTeaUpdatesExistingTea(t *testing.T) {
	store := &fakeStore{existing: &types.Tea{ID: 1000, Name: "Thé Vert", Description: "Un thé vert"}}
	input := types.TeaInput{Name: "Thé Vert", Description: "Thé vert bio"}

	result := New(store).AddTea(input)

	assert.Equal(t, Result{Success: true}, result)
	assert.Equal(t, []string{"Thé Vert"}, store.lookups)
	assert.Zero(t, store.generateCall, "no new id should be generated")
	assert.Equal(t, []types.Tea{{ID: 1000, Name: "Thé Vert", Description: "Thé vert bio"}}, store.saved)
}

func TestAddTeaSaveFailure(t *testing.T) {
	saveErr := errors.New("Error saving tea")
	store := &fakeStore{newID: 1002, saveErr: saveErr}
	input := types.TeaInput{Name: "Thé Rouge", Description: "Un thé rouge"}

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	result := New(store, WithLogger(logger)).AddTea(input)

	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Err, saveErr)
	assert.Equal(t, []types.Tea{{ID: 1002, Name: "Thé Rouge", Description: "Un thé rouge"}}, store.saved)
	assert.Contains(t, logs.String(), "add tea failed")
}

func TestResultJSONHidesCause(t *testing.T) {
	data, err := json.Marshal(Result{Success: false, Err: errors.New("disk full")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false}`, string(data))
}

func TestAddTeaKeepsExtraFields(t *testing.T) {
	store := &fakeStore{newID: 7}

	New(store).AddTea(types.TeaInput{Name: "Sencha", Extra: map[string]any{"price": 4.5}})

	require.Len(t, store.saved, 1)
	assert.Equal(t, map[string]any{"price": 4.5}, store.saved[0].Extra)
}

func TestAddTeaWithJSONStore(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := jsonfile.New(fs, "/data.json")
	svc := New(store)

	require.True(t, svc.AddTea(types.TeaInput{Name: "Fruit rouges", Description: "Un thé fruité"}).Success)
	first, ok, err := store.GetByName("Fruit rouges")
	require.NoError(t, err)
	require.True(t, ok)

	require.True(t, svc.AddTea(types.TeaInput{Name: "Fruit rouges", Description: "Détails..."}).Success)
	second, ok, err := store.GetByName("Fruit rouges")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Détails...", second.Description)

	teas, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, teas, 1)
}

func TestAddTeaWriteFailureIsSwallowed(t *testing.T) {
	store := jsonfile.New(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/data.json")

	var result Result
	require.NotPanics(t, func() {
		result = New(store).AddTea(types.TeaInput{Name: "Thé Rouge", Description: "Un thé rouge"})
	})
	assert.False(t, result.Success)
	assert.Error(t, result.Err)
}

func TestAddTeaParseFailureIsSwallowed(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data.json", []byte("not json"), 0o644))

	result := New(jsonfile.New(fs, "/data.json")).AddTea(types.TeaInput{Name: "Thé Rouge"})

	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Err, types.ErrParse)
}

// TestAddTeaProperties checks the upsert contract against random sequences
// of names: a new name gets a fresh unique id, a known name keeps its id and
// takes the latest description.
func TestAddTeaProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		store := jsonfile.New(afero.NewMemMapFs(), "/data.json")
		svc := New(store)

		ids := map[string]int64{}
		descriptions := map[string]string{}

		n := rapid.IntRange(1, 20).Draw(t, "adds")
		for i := 0; i < n; i++ {
			name := rapid.SampledFrom([]string{"Thé vert", "Thé noir", "Fruit rouges", "Sencha", "Oolong"}).Draw(t, "name")
			description := rapid.StringMatching(`[a-zA-Zéè .]{0,24}`).Draw(t, "description")

			if !svc.AddTea(types.TeaInput{Name: name, Description: description}).Success {
				t.Fatalf("AddTea(%q) failed", name)
			}

			tea, ok, err := store.GetByName(name)
			if err != nil || !ok {
				t.Fatalf("GetByName(%q) = %v, %v", name, ok, err)
			}
			if id, known := ids[name]; known && id != tea.ID {
				t.Fatalf("id of %q changed from %d to %d", name, id, tea.ID)
			}
			for other, id := range ids {
				if other != name && id == tea.ID {
					t.Fatalf("%q reused id %d of %q", name, id, other)
				}
			}
			if tea.Description != description {
				t.Fatalf("description of %q = %q, want %q", name, tea.Description, description)
			}
			ids[name] = tea.ID
			descriptions[name] = description
		}

		teas, err := store.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(teas) != len(ids) {
			t.Fatalf("store holds %d teas, want %d", len(teas), len(ids))
		}
		for _, tea := range teas {
			if descriptions[tea.Name] != tea.Description {
				t.Fatalf("description of %q = %q, want %q", tea.Name, tea.Description, descriptions[tea.Name])
			}
		}
	})
}
