package enrich

import (
	"encoding/json"
	"sort"
	"strings"
)

// Seniority and RoleFamily are closed enums with an explicit unknown
// member. Anything outside the allowed set — a hallucinated LLM value, a
// typo in cached data — is coerced to unknown instead of failing the job.

type Seniority string

const (
	SeniorityUnknown   Seniority = "unknown"
	SeniorityIntern    Seniority = "intern"
	SeniorityJunior    Seniority = "junior"
	SeniorityMid       Seniority = "mid"
	SenioritySenior    Seniority = "senior"
	SeniorityStaff     Seniority = "staff"
	SeniorityLead      Seniority = "lead"
	SeniorityPrincipal Seniority = "principal"
)

var validSeniorities = map[Seniority]bool{
	SeniorityUnknown:   true,
	SeniorityIntern:    true,
	SeniorityJunior:    true,
	SeniorityMid:       true,
	SenioritySenior:    true,
	SeniorityStaff:     true,
	SeniorityLead:      true,
	SeniorityPrincipal: true,
}

func ParseSeniority(s string) Seniority {
	v := Seniority(strings.ToLower(strings.TrimSpace(s)))
	if validSeniorities[v] {
		return v
	}
	return SeniorityUnknown
}

type RoleFamily string

const (
	RoleFamilyUnknown         RoleFamily = "unknown"
	RoleFamilyDataEngineering RoleFamily = "data_engineering"
	RoleFamilyDataScience     RoleFamily = "data_science"
	RoleFamilyAnalytics       RoleFamily = "analytics"
	RoleFamilyMLEngineering   RoleFamily = "ml_engineering"
	RoleFamilySoftware        RoleFamily = "software"
)

var validRoleFamilies = map[RoleFamily]bool{
	RoleFamilyUnknown:         true,
	RoleFamilyDataEngineering: true,
	RoleFamilyDataScience:     true,
	RoleFamilyAnalytics:       true,
	RoleFamilyMLEngineering:   true,
	RoleFamilySoftware:        true,
}

func ParseRoleFamily(s string) RoleFamily {
	v := RoleFamily(strings.ToLower(strings.TrimSpace(s)))
	if validRoleFamilies[v] {
		return v
	}
	return RoleFamilyUnknown
}

// Extraction is the validated classification of one job posting. Skills
// are always lowercase, trimmed, deduplicated and sorted.
type Extraction struct {
	Seniority  Seniority  `json:"seniority"`
	RoleFamily RoleFamily `json:"role_family"`
	Skills     []string   `json:"skills"`
}

// NewExtraction builds a valid Extraction from untrusted input, coercing
// out-of-enum values to unknown and normalizing the skill list.
func NewExtraction(seniority, roleFamily string, skills []string) Extraction {
	return Extraction{
		Seniority:  ParseSeniority(seniority),
		RoleFamily: ParseRoleFamily(roleFamily),
		Skills:     normalizeSkills(skills),
	}
}

func normalizeSkills(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	clean := make([]string, 0, len(skills))
	for _, skill := range skills {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill == "" || seen[skill] {
			continue
		}
		seen[skill] = true
		clean = append(clean, skill)
	}
	sort.Strings(clean)
	return clean
}

// MarshalBinary / UnmarshalBinary let an Extraction round-trip through the
// cache. Cached data is re-validated on the way out.
func (e Extraction) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

func (e *Extraction) UnmarshalBinary(data []byte) error {
	var raw struct {
		Seniority  string   `json:"seniority"`
		RoleFamily string   `json:"role_family"`
		Skills     []string `json:"skills"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = NewExtraction(raw.Seniority, raw.RoleFamily, raw.Skills)
	return nil
}
