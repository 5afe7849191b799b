package codex

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/mod/semver"
)

// TraitValueType enumerates the typed-trait kinds a schema may declare.
type TraitValueType int

const (
	TraitText TraitValueType = iota
	TraitIriReference
	TraitBoolean
	TraitInteger
	TraitNumber
	TraitEnumeratedToken
)

func parseTraitValueType(s string) (TraitValueType, bool) {
	switch s {
	case "Text":
		return TraitText, true
	case "IriReference":
		return TraitIriReference, true
	case "Boolean":
		return TraitBoolean, true
	case "Integer":
		return TraitInteger, true
	case "Number":
		return TraitNumber, true
	case "EnumeratedToken":
		return TraitEnumeratedToken, true
	default:
		return 0, false
	}
}

// TraitDefinition describes the constraints on one trait name wherever it
// appears in the schema.
type TraitDefinition struct {
	HasDefaultValueType bool
	DefaultValueType    TraitValueType
	AllowedValues       []string
}

// ConceptDefinition describes the traits and children one concept name may
// or must carry.
type ConceptDefinition struct {
	RequiredTraits   []string
	AllowedTraits    []string
	RequiredChildren []string
	AllowedChildren  []string
	ForbidsContent   bool
}

func (c ConceptDefinition) allowsTrait(name string) bool {
	for _, t := range c.AllowedTraits {
		if t == name {
			return true
		}
	}
	return false
}

func (c ConceptDefinition) allowsChild(concept string) bool {
	for _, ch := range c.AllowedChildren {
		if ch == concept {
			return true
		}
	}
	return false
}

// Schema is a concept/trait registry driving structural validation.
type Schema struct {
	Concepts map[string]ConceptDefinition
	Traits   map[string]TraitDefinition
}

// ParseSchema reads a Schema from its codex "Schema" envelope: one
// "ConceptDefinition" child per concept (trait "concept" names it, child
// "RequiresTrait"/"AllowsTrait"/"RequiresChild"/"AllowsChild" elements list
// the rules, and a "ForbidsContent" child with no traits marks content as
// disallowed), and one "TraitDefinition" child per trait (trait "trait"
// names it, trait "defaultValueType" optionally typing it, "AllowedValue"
// children enumerating its allowed tokens).
func ParseSchema(root *Node) (*Schema, error) {
	if root.Concept != "Schema" {
		return nil, fmt.Errorf("codex: schema root must be <Schema>, got <%s>", root.Concept)
	}
	s := &Schema{Concepts: map[string]ConceptDefinition{}, Traits: map[string]TraitDefinition{}}
	for _, cd := range root.ChildrenOf("ConceptDefinition") {
		name, ok := cd.Get("concept")
		if !ok || name == "" {
			return nil, fmt.Errorf("codex: ConceptDefinition missing required 'concept' trait")
		}
		def := ConceptDefinition{}
		for _, rt := range cd.ChildrenOf("RequiresTrait") {
			def.RequiredTraits = append(def.RequiredTraits, rt.MustGet("name"))
		}
		for _, at := range cd.ChildrenOf("AllowsTrait") {
			def.AllowedTraits = append(def.AllowedTraits, at.MustGet("name"))
		}
		for _, rc := range cd.ChildrenOf("RequiresChild") {
			def.RequiredChildren = append(def.RequiredChildren, rc.MustGet("concept"))
		}
		for _, ac := range cd.ChildrenOf("AllowsChild") {
			def.AllowedChildren = append(def.AllowedChildren, ac.MustGet("concept"))
		}
		if len(cd.ChildrenOf("ForbidsContent")) > 0 {
			def.ForbidsContent = true
		}
		// Required implies allowed.
		def.AllowedTraits = unionStrings(def.AllowedTraits, def.RequiredTraits)
		def.AllowedChildren = unionStrings(def.AllowedChildren, def.RequiredChildren)
		s.Concepts[name] = def
	}
	for _, td := range root.ChildrenOf("TraitDefinition") {
		name, ok := td.Get("trait")
		if !ok || name == "" {
			return nil, fmt.Errorf("codex: TraitDefinition missing required 'trait' trait")
		}
		def := TraitDefinition{}
		if dv, ok := td.Get("defaultValueType"); ok {
			vt, known := parseTraitValueType(dv)
			if !known {
				return nil, fmt.Errorf("codex: unknown defaultValueType %q for trait %q", dv, name)
			}
			def.HasDefaultValueType = true
			def.DefaultValueType = vt
		}
		for _, av := range td.ChildrenOf("AllowedValue") {
			def.AllowedValues = append(def.AllowedValues, av.MustGet("value"))
		}
		s.Traits[name] = def
	}
	return s, nil
}

func unionStrings(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// StructuralError reports a schema violation. Suggestion, when non-empty,
// is a fuzzy-matched nearest known name.
type StructuralError struct {
	Path       string
	Message    string
	Suggestion string
}

func (e *StructuralError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("codex: %s: %s (did you mean %q?)", e.Path, e.Message, e.Suggestion)
	}
	return fmt.Sprintf("codex: %s: %s", e.Path, e.Message)
}

// Validate recursively checks root against s.
func (s *Schema) Validate(root *Node) error {
	return s.validateNode(root, root.Concept)
}

func (s *Schema) validateNode(n *Node, path string) error {
	def, known := s.Concepts[n.Concept]
	if !known {
		return &StructuralError{Path: path, Message: fmt.Sprintf("unknown concept %q", n.Concept), Suggestion: suggestFrom(n.Concept, conceptNames(s))}
	}

	present := map[string]bool{}
	for _, t := range n.Traits {
		present[t.Name] = true
		if !def.allowsTrait(t.Name) {
			return &StructuralError{Path: path, Message: fmt.Sprintf("disallowed trait %q on <%s>", t.Name, n.Concept), Suggestion: suggestFrom(t.Name, def.AllowedTraits)}
		}
		if _, defined := s.Traits[t.Name]; !defined {
			return &StructuralError{Path: path, Message: fmt.Sprintf("trait %q has no TraitDefinition", t.Name), Suggestion: suggestFrom(t.Name, traitNames(s))}
		}
		if err := s.validateTraitValue(t.Name, t.Value, path); err != nil {
			return err
		}
	}
	for _, req := range def.RequiredTraits {
		if !present[req] {
			return &StructuralError{Path: path, Message: fmt.Sprintf("missing required trait %q on <%s>", req, n.Concept)}
		}
	}

	if def.ForbidsContent && n.Text != "" {
		return &StructuralError{Path: path, Message: fmt.Sprintf("<%s> forbids text content", n.Concept)}
	}

	childCount := map[string]int{}
	for _, c := range n.Children {
		childCount[c.Concept]++
		if !def.allowsChild(c.Concept) {
			return &StructuralError{Path: path, Message: fmt.Sprintf("disallowed child <%s> under <%s>", c.Concept, n.Concept), Suggestion: suggestFrom(c.Concept, def.AllowedChildren)}
		}
		if err := s.validateNode(c, path+"/"+c.Concept); err != nil {
			return err
		}
	}
	for _, req := range def.RequiredChildren {
		if childCount[req] == 0 {
			return &StructuralError{Path: path, Message: fmt.Sprintf("missing required child <%s> under <%s>", req, n.Concept)}
		}
	}
	return nil
}

func (s *Schema) validateTraitValue(name, value, path string) error {
	def, known := s.Traits[name]
	if !known || !def.HasDefaultValueType {
		return nil
	}
	raw := value
	switch def.DefaultValueType {
	case TraitText:
		return nil
	case TraitIriReference:
		if raw == "" || strings.ContainsAny(raw, " \t\n") || !strings.Contains(raw, ":") {
			return &StructuralError{Path: path, Message: fmt.Sprintf("trait %q must be a non-empty IRI reference, got %q", name, raw)}
		}
	case TraitBoolean:
		if raw != "true" && raw != "false" {
			return &StructuralError{Path: path, Message: fmt.Sprintf("trait %q must be true|false, got %q", name, raw)}
		}
	case TraitInteger:
		if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
			return &StructuralError{Path: path, Message: fmt.Sprintf("trait %q must be an integer, got %q", name, raw)}
		}
	case TraitNumber:
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return &StructuralError{Path: path, Message: fmt.Sprintf("trait %q must be a number, got %q", name, raw)}
		}
	case TraitEnumeratedToken:
		token := strings.TrimPrefix(raw, "$")
		for _, allowed := range def.AllowedValues {
			if allowed == token {
				return nil
			}
		}
		return &StructuralError{Path: path, Message: fmt.Sprintf("trait %q value %q is not an allowed enumerated token", name, raw), Suggestion: suggestFrom(token, def.AllowedValues)}
	}
	return nil
}

// MinSupportedWorkshopVersion and MaxSupportedWorkshopVersion bound the
// range of `workshopVersion` traits this pipeline accepts on an
// AdaptivePlanPackage. The range is half-open:
// versions in [min, max) are accepted.
const (
	MinSupportedWorkshopVersion = "1.0.0"
	MaxSupportedWorkshopVersion = "2.0.0"
)

// ValidateWorkshopVersion checks a workshopVersion trait value against
// [MinSupportedWorkshopVersion, MaxSupportedWorkshopVersion) using
// golang.org/x/mod/semver. An out-of-range or malformed version is a
// StructuralError, checked before a package is emitted rather than
// discovered downstream.
func ValidateWorkshopVersion(v string) error {
	sv := "v" + v
	if !semver.IsValid(sv) {
		return &StructuralError{Path: "workshopVersion", Message: fmt.Sprintf("workshopVersion %q is not a valid semantic version", v)}
	}
	if semver.Compare(sv, "v"+MinSupportedWorkshopVersion) < 0 || semver.Compare(sv, "v"+MaxSupportedWorkshopVersion) >= 0 {
		return &StructuralError{Path: "workshopVersion", Message: fmt.Sprintf("workshopVersion %q outside supported range [%s, %s)", v, MinSupportedWorkshopVersion, MaxSupportedWorkshopVersion)}
	}
	return nil
}

func conceptNames(s *Schema) []string {
	names := make([]string, 0, len(s.Concepts))
	for k := range s.Concepts {
		names = append(names, k)
	}
	return names
}

func traitNames(s *Schema) []string {
	names := make([]string, 0, len(s.Traits))
	for k := range s.Traits {
		names = append(names, k)
	}
	return names
}

// suggestFrom returns the closest candidate to got by rank-normalized
// Levenshtein distance, or "" if candidates is empty or nothing is close.
func suggestFrom(got string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	best := ""
	bestDist := -1
	for _, c := range candidates {
		d := fuzzy.RankMatchNormalizedFold(got, c)
		if d < 0 {
			continue
		}
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}
