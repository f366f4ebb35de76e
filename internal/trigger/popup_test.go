package trigger

import (
	"testing"

	"github.com/danielpatrickdp/stress-dost/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTypeAndCategory(t *testing.T) {
	typ, err := ParseType("sarcasm")
	require.NoError(t, err)
	assert.Equal(t, TypeSarcasm, typ)

	_, err = ParseType("rant")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	cat, err := ParseCategory("frustration")
	require.NoError(t, err)
	assert.Equal(t, CategoryFrustration, cat)

	_, err = ParseCategory("anger")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestPopupValidate(t *testing.T) {
	tests := []struct {
		name    string
		popup   Popup
		wantErr bool
	}{
		{"sarcasm ok", Popup{Text: "Still on Q1?", Type: TypeSarcasm, Category: CategoryThoughts, Value: 0.4}, false},
		{"missing text", Popup{Type: TypeSarcasm, Category: CategoryThoughts}, true},
		{"bad type", Popup{Text: "x", Type: "rant", Category: CategoryFear}, true},
		{"bad category", Popup{Text: "x", Type: TypeMotivation, Category: "anger"}, true},
		{"option needs three", Popup{Text: "x", Type: TypeOptionBased, Category: CategoryFear, Options: []string{"a", "b"}}, true},
		{"option with three", Popup{Text: "x", Type: TypeOptionBased, Category: CategoryFear, Options: []string{"a", "b", "c"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.popup.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestKeyPrefersID(t *testing.T) {
	assert.Equal(t, "f-1", Popup{ID: "f-1", Text: "hello"}.Key())
	assert.Equal(t, "hello", Popup{Text: "hello"}.Key())
}

func TestCloneIsIndependent(t *testing.T) {
	p := Popup{Text: "x", Tags: []string{"a"}, Options: []string{"1", "2", "3"}}
	c := p.Clone()
	c.Tags[0] = "b"
	c.Options[0] = "9"
	assert.Equal(t, "a", p.Tags[0])
	assert.Equal(t, "1", p.Options[0])
}

func TestOverlapAndDedup(t *testing.T) {
	p := Popup{Tags: []string{"calm", "supportive", "grounding"}}
	assert.Equal(t, 2, p.OverlapCount([]string{"calm", "grounding", "logic"}))
	assert.False(t, p.HasAnyTag([]string{"logic"}))
	assert.Equal(t, []string{"a", "b", "c"}, DedupTags([]string{"a", "b", "a", "c", "b"}))
}
