package register

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ItemStatus is the lifecycle state of an item.
type ItemStatus string

const (
	ItemStatusInvalid    ItemStatus = "invalid"
	ItemStatusRetired    ItemStatus = "retired"
	ItemStatusSubmitted  ItemStatus = "submitted"
	ItemStatusSuperseded ItemStatus = "superseded"
	ItemStatusValid      ItemStatus = "valid"
)

// ItemStatuses lists every item status.
func ItemStatuses() []ItemStatus {
	return []ItemStatus{
		ItemStatusInvalid,
		ItemStatusRetired,
		ItemStatusSubmitted,
		ItemStatusSuperseded,
		ItemStatusValid,
	}
}

// IsValid reports whether s is a known status.
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusInvalid, ItemStatusRetired, ItemStatusSubmitted, ItemStatusSuperseded, ItemStatusValid:
		return true
	}
	return false
}

// StakeholderRole is a role a stakeholder plays in a data set.
type StakeholderRole string

const (
	RoleOwner               StakeholderRole = "owner"
	RoleControlBody         StakeholderRole = "control-body"
	RoleControlBodyReviewer StakeholderRole = "control-body-reviewer"
	RoleManager             StakeholderRole = "manager"
	RoleSubmitter           StakeholderRole = "submitter"
)

func (r StakeholderRole) IsValid() bool {
	switch r {
	case RoleOwner, RoleControlBody, RoleControlBodyReviewer, RoleManager, RoleSubmitter:
		return true
	}
	return false
}

// AffiliationRole is a stakeholder's role within an organization.
type AffiliationRole string

const (
	AffiliationPointOfContact AffiliationRole = "pointOfContact"
	AffiliationMember         AffiliationRole = "member"
)

func (r AffiliationRole) IsValid() bool {
	return r == AffiliationPointOfContact || r == AffiliationMember
}

// ProposalState is the state of a change request against a register.
type ProposalState string

const (
	ProposalDraft                    ProposalState = "draft"
	ProposalProposed                 ProposalState = "proposed"
	ProposalPendingControlBodyReview ProposalState = "pending-control-body-review"
	ProposalReturnedForClarification ProposalState = "returned-for-clarification"
	ProposalAccepted                 ProposalState = "accepted"
	ProposalRejected                 ProposalState = "rejected"
	ProposalAppealed                 ProposalState = "rejection-appealed-to-owner"
	ProposalWithdrawn                ProposalState = "withdrawn"
	ProposalAcceptedOnAppeal         ProposalState = "accepted-on-appeal"
	ProposalRejectionUpheldOnAppeal  ProposalState = "rejection-upheld-on-appeal"
	ProposalAppealWithdrawn          ProposalState = "appeal-withdrawn"
)

var proposalStates = map[ProposalState]struct{}{
	ProposalDraft:                    {},
	ProposalProposed:                 {},
	ProposalPendingControlBodyReview: {},
	ProposalReturnedForClarification: {},
	ProposalAccepted:                 {},
	ProposalRejected:                 {},
	ProposalAppealed:                 {},
	ProposalWithdrawn:                {},
	ProposalAcceptedOnAppeal:         {},
	ProposalRejectionUpheldOnAppeal:  {},
	ProposalAppealWithdrawn:          {},
}

func (s ProposalState) IsValid() bool {
	_, ok := proposalStates[s]
	return ok
}

// IsFinal reports whether no further transition is expected from s.
func (s ProposalState) IsFinal() bool {
	switch s {
	case ProposalAccepted, ProposalRejected, ProposalWithdrawn,
		ProposalAcceptedOnAppeal, ProposalRejectionUpheldOnAppeal, ProposalAppealWithdrawn:
		return true
	}
	return false
}

// jsTimeLayout matches JavaScript's Date.prototype.toISOString.
const jsTimeLayout = "2006-01-02T15:04:05.000Z"

var jsTimeParseLayouts = []string{
	time.RFC3339Nano,
	jsTimeLayout,
	"2006-01-02 15:04:05.999999999 -07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// JSTime is a UTC timestamp written with millisecond precision and a Z suffix.
type JSTime struct {
	time.Time
}

// NewJSTime truncates t to milliseconds.
func NewJSTime(t time.Time) JSTime {
	return JSTime{Time: t.UTC().Truncate(time.Millisecond)}
}

func (t JSTime) String() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(jsTimeLayout)
}

func (t JSTime) MarshalYAML() (any, error) {
	if t.IsZero() {
		return nil, nil
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: t.String()}, nil
}

func (t *JSTime) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: timestamp must be a scalar", value.Line)
	}
	if value.Value == "" || value.Tag == "!!null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range jsTimeParseLayouts {
		if parsed, err := time.Parse(layout, value.Value); err == nil {
			*t = NewJSTime(parsed)
			return nil
		}
	}
	return fmt.Errorf("line %d: cannot parse %q as a timestamp", value.Line, value.Value)
}

// RegisterMetadata is paneron.yaml.
type RegisterMetadata struct {
	Title    string          `yaml:"title"`
	DataSets map[string]bool `yaml:"datasets"`
}

func defaultRegisterMetadata(title string) RegisterMetadata {
	return RegisterMetadata{Title: title, DataSets: map[string]bool{}}
}

func (m *RegisterMetadata) markAvailable(name string) {
	if m.DataSets == nil {
		m.DataSets = map[string]bool{}
	}
	m.DataSets[name] = true
}

func (m *RegisterMetadata) rekey(oldName, newName string) {
	if available, ok := m.DataSets[oldName]; ok {
		delete(m.DataSets, oldName)
		m.DataSets[newName] = available
	}
}

// DataSetMetadata is a data set's register.yaml.
type DataSetMetadata struct {
	Name              string                  `yaml:"name"`
	Stakeholders      []Stakeholder           `yaml:"stakeholders"`
	Version           Version                 `yaml:"version"`
	ContentSummary    string                  `yaml:"contentSummary"`
	OperatingLanguage OperatingLanguage       `yaml:"operatingLanguage"`
	Organizations     map[string]Organization `yaml:"organizations"`
}

type Version struct {
	ID        string `yaml:"id"`
	Timestamp JSTime `yaml:"timestamp"`
}

type OperatingLanguage struct {
	Name         string `yaml:"name"`
	Country      string `yaml:"country"`
	LanguageCode string `yaml:"languageCode"`
}

type Organization struct {
	Name    string `yaml:"name"`
	LogoURL string `yaml:"logoURL"`
}

type Stakeholder struct {
	Name              string                 `yaml:"name"`
	Roles             []StakeholderRole      `yaml:"roles"`
	GitServerUsername string                 `yaml:"gitServerUsername,omitempty"`
	Affiliations      map[string]Affiliation `yaml:"affiliations,omitempty"`
	Notes             string                 `yaml:"notes,omitempty"`
	Contacts          []Contact              `yaml:"contacts,omitempty"`
}

type Affiliation struct {
	Role AffiliationRole `yaml:"role"`
}

type Contact struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
	Notes string `yaml:"notes,omitempty"`
}

func defaultDataSetMetadata(name string) DataSetMetadata {
	m := DataSetMetadata{Name: name}
	m.applyDefaults()
	return m
}

// applyDefaults fills the operating language, contact labels and nil maps.
func (m *DataSetMetadata) applyDefaults() {
	if m.OperatingLanguage.Name == "" {
		m.OperatingLanguage.Name = "English"
	}
	if m.OperatingLanguage.Country == "" {
		m.OperatingLanguage.Country = "N/A"
	}
	if m.OperatingLanguage.LanguageCode == "" {
		m.OperatingLanguage.LanguageCode = "eng"
	}
	if m.Stakeholders == nil {
		m.Stakeholders = []Stakeholder{}
	}
	if m.Organizations == nil {
		m.Organizations = map[string]Organization{}
	}
	for i := range m.Stakeholders {
		for j := range m.Stakeholders[i].Contacts {
			if m.Stakeholders[i].Contacts[j].Label == "" {
				m.Stakeholders[i].Contacts[j].Label = "email"
			}
		}
	}
}

// problems lists enumeration violations.
func (m *DataSetMetadata) problems() []string {
	var msgs []string
	for _, s := range m.Stakeholders {
		for _, role := range s.Roles {
			if !role.IsValid() {
				msgs = append(msgs, fmt.Sprintf("stakeholder %q has unknown role %q", s.Name, role))
			}
		}
		for org, aff := range s.Affiliations {
			if !aff.Role.IsValid() {
				msgs = append(msgs, fmt.Sprintf("stakeholder %q has unknown role %q in organization %s", s.Name, aff.Role, org))
			}
		}
	}
	return msgs
}

// ExtensionMetadata is a data set's panerondataset.yaml.
type ExtensionMetadata struct {
	Title string      `yaml:"title"`
	Type  DataSetType `yaml:"type"`
}

type DataSetType struct {
	ID      string `yaml:"id"`
	Version string `yaml:"version"`
}

// itemRecord is the on-disk shape of an item file.
type itemRecord struct {
	ID           string     `yaml:"id"`
	Data         any        `yaml:"data"`
	Status       ItemStatus `yaml:"status"`
	DateAccepted JSTime     `yaml:"dateAccepted"`
}
