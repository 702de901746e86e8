package content

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idea struct {
	ID    int64
	Title string
}

type ideaResolver struct {
	ideas map[int64]idea
}

func (r *ideaResolver) Resolve(id int64) (any, error) {
	it, ok := r.ideas[id]
	if !ok {
		return nil, errors.New("idea not found")
	}
	return it, nil
}

func TestReferenceEquality(t *testing.T) {
	a := Reference{Kind: "idea", ID: 1}
	b := Reference{Kind: "idea", ID: 1}
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Reference{Kind: "idea", ID: 2})
	assert.NotEqual(t, a, Reference{Kind: "comment", ID: 1})
}

func TestReferenceString(t *testing.T) {
	assert.Equal(t, "idea/42", Reference{Kind: "idea", ID: 42}.String())
	assert.True(t, Reference{}.IsZero())
	assert.False(t, Reference{Kind: "idea"}.IsZero())
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	reg.Register("idea", &ideaResolver{ideas: map[int64]idea{7: {ID: 7, Title: "solar kettle"}}})

	got, err := reg.Resolve(Reference{Kind: "idea", ID: 7})
	require.NoError(t, err)
	assert.Equal(t, "solar kettle", got.(idea).Title)

	_, err = reg.Resolve(Reference{Kind: "comment", ID: 1})
	require.ErrorIs(t, err, ErrUnknownKind)

	assert.ElementsMatch(t, []string{"idea"}, reg.Kinds())
}
