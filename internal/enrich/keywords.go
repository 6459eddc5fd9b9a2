package enrich

import (
	"regexp"
	"strings"
)

// Deterministic keyword extractor. Runs whenever the LLM is disabled or
// fails, so it must never error and must give the same answer for the
// same text.

var commonSkills = []string{
	"python", "sql", "airflow", "prefect", "dbt", "spark", "hadoop", "kafka",
	"snowflake", "bigquery", "redshift", "databricks", "aws", "gcp", "azure",
	"docker", "kubernetes", "terraform", "pandas", "pyspark", "looker",
	"tableau", "power bi", "git", "postgres", "mysql", "mongodb", "elasticsearch",
	"flink", "dask", "polars", "great expectations", "dlt", "fivetran", "airbyte",
}

type skillPattern struct {
	skill   string
	pattern *regexp.Regexp
}

var skillPatterns = buildSkillPatterns()

func buildSkillPatterns() []skillPattern {
	patterns := make([]skillPattern, 0, len(commonSkills))
	for _, skill := range commonSkills {
		patterns = append(patterns, skillPattern{
			skill:   skill,
			pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(skill) + `\b`),
		})
	}
	return patterns
}

// seniorityRules are evaluated in order; the first level with any matching
// keyword wins.
var seniorityRules = []struct {
	level    Seniority
	keywords []string
}{
	{SeniorityIntern, []string{"intern", "internship"}},
	{SeniorityJunior, []string{"junior", "jr.", "entry level", "entry-level", "0-2 years", "1 year"}},
	{SeniorityMid, []string{"mid-level", "mid level", "2-4 years", "3+ years"}},
	{SenioritySenior, []string{"senior", "sr.", "5+ years", "6+ years", "7+ years"}},
	{SeniorityStaff, []string{"staff engineer", "staff data"}},
	{SeniorityLead, []string{"lead", "team lead", "tech lead"}},
	{SeniorityPrincipal, []string{"principal", "distinguished"}},
}

var dataEngineeringKeywords = []string{
	"data engineer", "data pipeline", "etl", "elt", "warehouse", "lakehouse",
	"dbt", "airflow", "spark", "kafka", "data platform", "data infrastructure",
}

// extractKeywords classifies a posting by scanning the lowercased
// title+description. Skills use word-boundary matching; seniority and
// role family use ordered substring rules, first match wins.
func extractKeywords(title, description string) Extraction {
	text := strings.ToLower(title + " " + description)

	var skills []string
	for _, sp := range skillPatterns {
		if sp.pattern.MatchString(text) {
			skills = append(skills, sp.skill)
		}
	}

	seniority := SeniorityUnknown
	for _, rule := range seniorityRules {
		if containsAny(text, rule.keywords) {
			seniority = rule.level
			break
		}
	}

	roleFamily := RoleFamilyUnknown
	switch {
	case containsAny(text, dataEngineeringKeywords):
		roleFamily = RoleFamilyDataEngineering
	case strings.Contains(text, "data scientist") || strings.Contains(text, "machine learning"):
		roleFamily = RoleFamilyDataScience
	case strings.Contains(text, "analytics") || strings.Contains(text, "analyst"):
		roleFamily = RoleFamilyAnalytics
	case strings.Contains(text, "software engineer") || strings.Contains(text, "backend"):
		roleFamily = RoleFamilySoftware
	}

	return NewExtraction(string(seniority), string(roleFamily), skills)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
