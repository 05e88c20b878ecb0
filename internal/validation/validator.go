// =============================================================================
// ASYCUDA XML Converter - Structural Check
// =============================================================================
//
// This module checks a built document tree before it is serialized. It does
// not judge whether customs will accept a declaration; it only guards the
// shape every document must have:
//
//   1. Document-level: root ASYCUDA with exactly SAD then Items
//   2. Section-level: SAD carries its sections in order
//   3. Item-level: Items holds one Item per input record
//   4. Leaf-level: text is never a placeholder and never padded
//
// ERROR HANDLING:
//   - Problems are collected, not returned on first sight
//   - Each problem carries the element path and offending value
//   - Errors fail the document; warnings are reported and ignored
//
// =============================================================================

package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/types"
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/xmlwriter"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// SADSections lists the declaration sections in document order.
var SADSections = []string{
	"Assessment_notice",
	"Properties",
	"Identification",
	"Traders",
	"Declarant",
	"General_information",
	"Transport",
	"Financial",
	"Transit",
	"Valuation",
}

// numericLeaves are leaves expected to hold a number when not empty.
var numericLeaves = map[string]bool{
	"Amount_national_currency": true,
	"Amount_foreign_currency":  true,
	"Currency_rate":            true,
	"Total_item_taxes":         true,
	"Tax_amount":               true,
	"Total_cost":               true,
	"Total_cif":                true,
	"Total_invoice":            true,
	"Total_weight":             true,
	"Total_cif_itm":            true,
	"Statistical_value":        true,
	"Duty_tax_amount":          true,
	"Item_taxes_amount":        true,
}

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single structural problem.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Path is the slash separated element path, e.g. "ASYCUDA/SAD/Transit".
	Path string

	// Value is the offending text, if any.
	Value string

	// Rule names the check that failed.
	Rule string

	// Message is a human-readable error message.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(e.Severity), e.Path, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s (value: '%s')",
		strings.ToUpper(e.Severity), e.Path, e.Message, e.Value)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all problems, including warnings.
	Errors []*ValidationError

	// ErrorCount is the number of fatal errors.
	ErrorCount int

	// WarningCount is the number of warnings.
	WarningCount int

	// LeavesValidated is the number of text elements checked.
	LeavesValidated int
}

// Err returns the first fatal error, or nil.
func (r *ValidationResult) Err() error {
	for _, e := range r.Errors {
		if e.Severity == SeverityError {
			return e
		}
	}
	if !r.IsValid && len(r.Errors) > 0 {
		return r.Errors[0]
	}
	return nil
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// StopOnFirstError stops validation after the first fatal error.
	// Default: false
	StopOnFirstError bool

	// TreatWarningsAsErrors treats warnings as fatal errors.
	// Default: false
	TreatWarningsAsErrors bool
}

// DefaultValidationOptions returns the default validation options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{}
}

// Validator checks document trees.
type Validator struct {
	options ValidationOptions
}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{options: DefaultValidationOptions()}
}

// NewValidatorWithOptions creates a new Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// Validate checks root with the default options and returns every problem.
func Validate(root *xmlwriter.Node, itemCount int) []*ValidationError {
	return NewValidator().ValidateDocument(root, itemCount).Errors
}

// ValidateDocument checks root against the document shape. itemCount is the
// number of item records the tree was built from.
func (v *Validator) ValidateDocument(root *xmlwriter.Node, itemCount int) *ValidationResult {
	result := &ValidationResult{IsValid: true}
	c := &collector{options: v.options, result: result}

	if root == nil {
		c.add(SeverityError, "", "", "document", "document is nil")
		return result
	}
	if root.Name != "ASYCUDA" {
		c.add(SeverityError, root.Name, "", "root", "root element must be ASYCUDA")
		return result
	}

	if !c.checkRoot(root) {
		return result
	}
	if !c.checkSAD(root.Child("SAD")) {
		return result
	}
	if !c.checkItems(root.Child("Items"), itemCount) {
		return result
	}
	c.checkLeaves(root, "")

	return result
}

// =============================================================================
// CHECKS
// =============================================================================

type collector struct {
	options ValidationOptions
	result  *ValidationResult
	stopped bool
}

// add records a problem. It reports false once validation should stop.
func (c *collector) add(severity, path, value, rule, message string) bool {
	c.result.Errors = append(c.result.Errors, &ValidationError{
		Severity: severity,
		Path:     path,
		Value:    value,
		Rule:     rule,
		Message:  message,
	})

	if severity == SeverityError {
		c.result.ErrorCount++
		c.result.IsValid = false
		if c.options.StopOnFirstError {
			c.stopped = true
		}
	} else {
		c.result.WarningCount++
		if c.options.TreatWarningsAsErrors {
			c.result.IsValid = false
		}
	}
	return !c.stopped
}

func (c *collector) checkRoot(root *xmlwriter.Node) bool {
	names := childNames(root)
	if len(names) != 2 || names[0] != "SAD" || names[1] != "Items" {
		c.add(SeverityError, "ASYCUDA", strings.Join(names, ","), "root_children",
			"root must contain exactly SAD and Items, in that order")
		return false
	}
	return true
}

func (c *collector) checkSAD(sad *xmlwriter.Node) bool {
	names := childNames(sad)
	if len(names) != len(SADSections) {
		c.add(SeverityError, "ASYCUDA/SAD", strings.Join(names, ","), "sad_sections",
			fmt.Sprintf("SAD must contain %d sections, found %d", len(SADSections), len(names)))
		return false
	}
	ok := true
	for i, want := range SADSections {
		if names[i] != want {
			ok = false
			if !c.add(SeverityError, "ASYCUDA/SAD", names[i], "sad_sections",
				fmt.Sprintf("section %d must be %s", i+1, want)) {
				return false
			}
		}
	}
	return ok
}

func (c *collector) checkItems(items *xmlwriter.Node, itemCount int) bool {
	if len(items.Children) != itemCount {
		c.add(SeverityError, "ASYCUDA/Items", strconv.Itoa(len(items.Children)), "item_count",
			fmt.Sprintf("expected %d Item elements", itemCount))
		return false
	}
	for i, it := range items.Children {
		if it.Name != "Item" {
			if !c.add(SeverityError, fmt.Sprintf("ASYCUDA/Items[%d]", i+1), it.Name, "item_name",
				"Items may only contain Item elements") {
				return false
			}
		}
	}
	return true
}

func (c *collector) checkLeaves(n *xmlwriter.Node, parent string) {
	if c.stopped {
		return
	}

	path := n.Name
	if parent != "" {
		path = parent + "/" + n.Name
	}

	if !n.IsLeaf() {
		for _, child := range n.Children {
			c.checkLeaves(child, path)
		}
		return
	}

	c.result.LeavesValidated++
	if n.Text == "" {
		return
	}

	if i := strings.IndexFunc(n.Text, func(r rune) bool { return !xmlwriter.IsXMLChar(r) }); i >= 0 {
		c.add(SeverityError, path, n.Text, "illegal_character",
			fmt.Sprintf("text contains a character XML does not allow at byte %d", i))
		return
	}

	normalized, ok := types.NewText(n.Text).Value()
	if !ok {
		c.add(SeverityError, path, n.Text, "placeholder", "text is blank or a missing-value placeholder")
		return
	}
	if normalized != n.Text {
		c.add(SeverityError, path, n.Text, "untrimmed", "text has surrounding whitespace")
		return
	}

	if numericLeaves[n.Name] {
		if _, err := strconv.ParseFloat(n.Text, 64); err != nil {
			c.add(SeverityWarning, path, n.Text, "numeric", "expected a number")
		}
	}
}

func childNames(n *xmlwriter.Node) []string {
	if n == nil {
		return nil
	}
	names := make([]string, len(n.Children))
	for i, child := range n.Children {
		names[i] = child.Name
	}
	return names
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d error(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
