package definition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Transitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusDraft, StatusReview, true},
		{StatusDraft, StatusEstablished, false},
		{StatusReview, StatusEstablished, true},
		{StatusReview, StatusDraft, true},
		{StatusEstablished, StatusArchived, true},
		{StatusEstablished, StatusDraft, false},
		{StatusArchived, StatusDraft, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransition(tt.to))
		})
	}
}

func TestDefinition_Transition(t *testing.T) {
	d := New("Identiteitsmiddel", "Een middel waarmee een persoon zich identificeert.")
	require.Equal(t, StatusDraft, d.Status)

	require.NoError(t, d.Transition(StatusReview, "alice"))
	assert.Equal(t, StatusReview, d.Status)
	assert.Equal(t, "alice", d.UpdatedBy)

	err := d.Transition(StatusDraft, "")
	require.NoError(t, err)

	err = d.Transition(StatusEstablished, "alice")
	assert.Error(t, err, "draft cannot be established directly")
}

func TestDefinition_NewVersion(t *testing.T) {
	d := New("Verdachte", "Een persoon tegen wie een verdenking bestaat.")
	d.Category = "rol"
	d.OrgContext = NewContextSet("OM")
	d.LegalContext = NewContextSet("Strafrecht")

	v2 := d.NewVersion("Een persoon die wordt verdacht van een strafbaar feit.", "bob")

	assert.Equal(t, 2, v2.Version)
	assert.Equal(t, d.ID, v2.PreviousID)
	assert.NotEqual(t, d.ID, v2.ID)
	assert.Equal(t, StatusDraft, v2.Status)
	assert.Equal(t, d.Term, v2.Term)
	assert.Equal(t, d.Category, v2.Category)
	assert.True(t, v2.OrgContext.Equals(d.OrgContext))
}

func TestDefinition_MatchesContext(t *testing.T) {
	d := New("Identiteitsmiddel", "x")
	d.OrgContext = NewContextSet("OM")
	d.LegalContext = NewContextSet("Strafrecht")
	d.LegalBasis = NewContextSet("Art. 27 Sv", "Art. 67 Sv")

	assert.True(t, d.MatchesContext(
		NewContextSet("OM"),
		NewContextSet("Strafrecht"),
		NewContextSet("Art. 67 Sv", "Art. 27 Sv"),
	))
	assert.False(t, d.MatchesContext(
		NewContextSet("OM"),
		NewContextSet("Civiel recht"),
		NewContextSet("Art. 27 Sv", "Art. 67 Sv"),
	))
}

func TestGenerationRequest_Validate(t *testing.T) {
	r := NewGenerationRequest("  Verdachte  ")
	assert.Equal(t, "Verdachte", r.Term)
	assert.NoError(t, r.Validate())

	empty := NewGenerationRequest("")
	assert.Error(t, empty.Validate())
}
