package duplicate

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexdef/lexdef/definition"
)

// memFinder is a slice-backed Finder for tests.
type memFinder struct {
	defs []*definition.Definition
	err  error
}

func (m *memFinder) FindByTerm(_ context.Context, term string) ([]*definition.Definition, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*definition.Definition
	for _, d := range m.defs {
		if strings.EqualFold(d.Term, term) {
			out = append(out, d)
		}
	}
	return out, nil
}

// identiteitsmiddel is the established fixture the scenario tests revolve
// around: org={OM}, legal={Strafrecht}, basis={Art. 27 Sv, Art. 67 Sv}.
func identiteitsmiddel() *definition.Definition {
	d := definition.New("Identiteitsmiddel", "Een middel waarmee de identiteit van een persoon kan worden vastgesteld.")
	d.Category = "object"
	d.OrgContext = definition.NewContextSet("OM")
	d.LegalContext = definition.NewContextSet("Strafrecht")
	d.LegalBasis = definition.NewContextSet("Art. 27 Sv", "Art. 67 Sv")
	d.Status = definition.StatusEstablished
	return d
}

func idKaartRequest() *definition.GenerationRequest {
	req := definition.NewGenerationRequest("ID-kaart")
	req.Category = "object"
	req.OrgContext = definition.NewContextSet("OM")
	req.LegalContext = definition.NewContextSet("Strafrecht")
	// Legal basis deliberately supplied in reverse order.
	req.LegalBasis = definition.NewContextSet("Art. 67 Sv", "Art. 27 Sv")
	return req
}

func synonyms() *StaticRegistry {
	return NewStaticRegistry(SynonymSet{
		Preferred: "Identiteitsmiddel",
		Synonyms:  []string{"ID-kaart", "Identiteitsbewijs"},
	})
}

func TestGate_NoMatchProceeds(t *testing.T) {
	gate := NewGate(&memFinder{}, nil, nil)

	res, err := gate.Check(context.Background(), definition.NewGenerationRequest("Verdachte"))
	require.NoError(t, err)
	assert.Equal(t, ActionProceed, res.Action)
	assert.Nil(t, res.Existing)
}

func TestGate_SynonymMatchUsesExisting(t *testing.T) {
	// Scenario: request for "ID-kaart", synonym of the established
	// "Identiteitsmiddel", identical context, legal basis reversed.
	gate := NewGate(&memFinder{defs: []*definition.Definition{identiteitsmiddel()}}, synonyms(), nil)

	res, err := gate.Check(context.Background(), idKaartRequest())
	require.NoError(t, err)

	assert.Equal(t, ActionUseExisting, res.Action)
	require.NotNil(t, res.Existing)
	assert.Equal(t, "Identiteitsmiddel", res.Existing.Term)
}

func TestGate_DifferentLegalContextProceeds(t *testing.T) {
	gate := NewGate(&memFinder{defs: []*definition.Definition{identiteitsmiddel()}}, synonyms(), nil)

	req := idKaartRequest()
	req.LegalContext = definition.NewContextSet("Civiel recht")

	res, err := gate.Check(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, ActionProceed, res.Action)
	assert.Nil(t, res.Existing)
}

func TestGate_LegalBasisOrderIndependent(t *testing.T) {
	gate := NewGate(&memFinder{defs: []*definition.Definition{identiteitsmiddel()}}, synonyms(), nil)

	forward := idKaartRequest()
	forward.LegalBasis = definition.NewContextSet("Art. 27 Sv", "Art. 67 Sv")
	reversed := idKaartRequest()
	reversed.LegalBasis = definition.NewContextSet("Art. 67 Sv", "Art. 27 Sv")

	for _, req := range []*definition.GenerationRequest{forward, reversed} {
		res, err := gate.Check(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, ActionUseExisting, res.Action)
	}
}

func TestGate_DraftMatchUpdatesExisting(t *testing.T) {
	d := identiteitsmiddel()
	d.Status = definition.StatusDraft
	gate := NewGate(&memFinder{defs: []*definition.Definition{d}}, synonyms(), nil)

	res, err := gate.Check(context.Background(), idKaartRequest())
	require.NoError(t, err)
	assert.Equal(t, ActionUpdateExisting, res.Action)

	d.Status = definition.StatusReview
	res, err = gate.Check(context.Background(), idKaartRequest())
	require.NoError(t, err)
	assert.Equal(t, ActionUpdateExisting, res.Action)
}

func TestGate_ArchivedNeverMatches(t *testing.T) {
	d := identiteitsmiddel()
	d.Status = definition.StatusArchived
	gate := NewGate(&memFinder{defs: []*definition.Definition{d}}, synonyms(), nil)

	res, err := gate.Check(context.Background(), idKaartRequest())
	require.NoError(t, err)
	assert.Equal(t, ActionProceed, res.Action)
}

func TestGate_CategoryMismatchProceeds(t *testing.T) {
	gate := NewGate(&memFinder{defs: []*definition.Definition{identiteitsmiddel()}}, synonyms(), nil)

	req := idKaartRequest()
	req.Category = "proces"

	res, err := gate.Check(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, ActionProceed, res.Action)
}

func TestGate_CaseInsensitiveTermMatch(t *testing.T) {
	gate := NewGate(&memFinder{defs: []*definition.Definition{identiteitsmiddel()}}, synonyms(), nil)

	req := idKaartRequest()
	req.Term = "id-kaart"

	res, err := gate.Check(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, ActionUseExisting, res.Action)
}

func TestGate_PrefersHighestVersion(t *testing.T) {
	v1 := identiteitsmiddel()
	v2 := v1.NewVersion("Een middel waarmee een persoon zich identificeert tegenover een instantie.", "alice")
	require.NoError(t, v2.Transition(definition.StatusReview, "alice"))
	gate := NewGate(&memFinder{defs: []*definition.Definition{v1, v2}}, synonyms(), nil)

	res, err := gate.Check(context.Background(), idKaartRequest())
	require.NoError(t, err)
	require.NotNil(t, res.Existing)
	assert.Equal(t, 2, res.Existing.Version)
	assert.Equal(t, ActionUpdateExisting, res.Action)
}

func TestGate_FinderErrorSurfaces(t *testing.T) {
	gate := NewGate(&memFinder{err: fmt.Errorf("store down")}, nil, nil)

	_, err := gate.Check(context.Background(), definition.NewGenerationRequest("x"))
	assert.Error(t, err)
}

func TestStaticRegistry_Preferred(t *testing.T) {
	reg := synonyms()
	assert.Equal(t, "Identiteitsmiddel", reg.Preferred("ID-kaart"))
	assert.Equal(t, "Identiteitsmiddel", reg.Preferred("identiteitsmiddel"))
	assert.Equal(t, "Onbekend", reg.Preferred("Onbekend"))
}
