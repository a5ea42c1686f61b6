package register

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestJSTime_MarshalYAML(t *testing.T) {
	ts := NewJSTime(time.Date(2024, 1, 1, 9, 0, 0, 123456789, time.FixedZone("EET", 2*3600)))

	out, err := yaml.Marshal(struct {
		At JSTime `yaml:"at"`
	}{At: ts})
	require.NoError(t, err)
	require.Equal(t, "at: 2024-01-01T07:00:00.123Z\n", string(out))
}

func TestJSTime_ZeroMarshalsNull(t *testing.T) {
	out, err := yaml.Marshal(struct {
		At JSTime `yaml:"at"`
	}{})
	require.NoError(t, err)
	require.Equal(t, "at: null\n", string(out))
	require.Empty(t, JSTime{}.String())
}

func TestJSTime_UnmarshalYAML(t *testing.T) {
	want := time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		doc  string
		want time.Time
	}{
		{"js iso string", "at: 2024-01-01T07:00:00.000Z", want},
		{"rfc3339 offset", "at: 2024-01-01T09:00:00+02:00", want},
		{"quoted", `at: "2024-01-01T07:00:00Z"`, want},
		{"space separated", "at: 2024-01-01 07:00:00", want},
		{"date only", "at: 2024-01-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"sub-millisecond truncated", "at: 2024-01-01T07:00:00.000999Z", want},
		{"null", "at: null", time.Time{}},
		{"empty", "at:", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v struct {
				At JSTime `yaml:"at"`
			}
			require.NoError(t, yaml.Unmarshal([]byte(tt.doc), &v))
			require.True(t, tt.want.Equal(v.At.Time), "got %s", v.At.Time)
		})
	}
}

func TestJSTime_UnmarshalRejectsGarbage(t *testing.T) {
	var v struct {
		At JSTime `yaml:"at"`
	}
	require.Error(t, yaml.Unmarshal([]byte("at: yesterday"), &v))
	require.Error(t, yaml.Unmarshal([]byte("at: [1, 2]"), &v))
}

func TestItemStatus_IsValid(t *testing.T) {
	for _, s := range ItemStatuses() {
		require.True(t, s.IsValid(), s)
	}
	require.False(t, ItemStatus("").IsValid())
	require.False(t, ItemStatus("VALID").IsValid())
}

func TestStakeholderRoles(t *testing.T) {
	for _, r := range []StakeholderRole{RoleOwner, RoleControlBody, RoleControlBodyReviewer, RoleManager, RoleSubmitter} {
		require.True(t, r.IsValid(), r)
	}
	require.False(t, StakeholderRole("admin").IsValid())
	require.True(t, AffiliationPointOfContact.IsValid())
	require.False(t, AffiliationRole("chair").IsValid())
}

func TestProposalState_IsFinal(t *testing.T) {
	tests := []struct {
		state ProposalState
		final bool
	}{
		{ProposalDraft, false},
		{ProposalProposed, false},
		{ProposalPendingControlBodyReview, false},
		{ProposalReturnedForClarification, false},
		{ProposalAppealed, false},
		{ProposalAccepted, true},
		{ProposalRejected, true},
		{ProposalWithdrawn, true},
		{ProposalAcceptedOnAppeal, true},
		{ProposalRejectionUpheldOnAppeal, true},
		{ProposalAppealWithdrawn, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			require.True(t, tt.state.IsValid())
			require.Equal(t, tt.final, tt.state.IsFinal())
		})
	}
	require.False(t, ProposalState("pending").IsValid())
}

func TestDataSetMetadata_Defaults(t *testing.T) {
	var m DataSetMetadata
	doc := `
name: codes
stakeholders:
  - name: Jane
    roles: [owner]
    contacts:
      - value: jane@example.com
`
	require.NoError(t, yaml.Unmarshal([]byte(doc), &m))
	m.applyDefaults()

	require.Equal(t, OperatingLanguage{Name: "English", Country: "N/A", LanguageCode: "eng"}, m.OperatingLanguage)
	require.NotNil(t, m.Organizations)
	require.Equal(t, "email", m.Stakeholders[0].Contacts[0].Label)
	require.Empty(t, m.problems())
}

func TestDataSetMetadata_Problems(t *testing.T) {
	m := defaultDataSetMetadata("codes")
	m.Stakeholders = []Stakeholder{{
		Name:         "Jane",
		Roles:        []StakeholderRole{RoleOwner, "emperor"},
		Affiliations: map[string]Affiliation{"org-1": {Role: "chair"}},
	}}

	msgs := m.problems()
	require.Len(t, msgs, 2)
	require.Contains(t, msgs[0], `unknown role "emperor"`)
	require.Contains(t, msgs[1], "org-1")
}

func TestDataSetMetadata_RoundTrip(t *testing.T) {
	m := defaultDataSetMetadata("codes")
	m.Version = Version{ID: "1.0", Timestamp: NewJSTime(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))}
	m.ContentSummary = "Unit codes"
	m.Organizations["9c1b6a3e-3f55-4a8e-9a40-0c2e8f1a6b7d"] = Organization{Name: "Acme", LogoURL: "https://acme.example/logo.png"}

	out, err := marshalYAML(m)
	require.NoError(t, err)
	require.Contains(t, string(out), "timestamp: 2024-03-01T12:00:00.000Z")
	require.Contains(t, string(out), "languageCode: eng")

	var back DataSetMetadata
	require.NoError(t, yaml.Unmarshal(out, &back))
	require.Equal(t, m, back)
}

func TestRegisterMetadata_Rekey(t *testing.T) {
	m := defaultRegisterMetadata("reg")
	m.markAvailable("a")
	m.DataSets["b"] = false

	m.rekey("b", "c")
	require.Equal(t, map[string]bool{"a": true, "c": false}, m.DataSets)

	m.rekey("missing", "d")
	require.NotContains(t, m.DataSets, "d")
}
