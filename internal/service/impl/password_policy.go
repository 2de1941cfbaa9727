package impl

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"userauth/internal/domain"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

//go:embed common_passwords.txt
var commonPasswordsRaw string

const (
	DefaultMinPasswordLength = 8
	DefaultMaxSimilarity     = 0.7
)

// PasswordAttributes are the identity values a password must not resemble.
type PasswordAttributes struct {
	Username string
	FullName string
	Email    string
}

type PasswordPolicy struct {
	MinLength     int
	MaxSimilarity float64
	common        map[string]struct{}
}

func NewPasswordPolicy() *PasswordPolicy {
	common := make(map[string]struct{})
	for _, line := range strings.Split(commonPasswordsRaw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			common[strings.ToLower(line)] = struct{}{}
		}
	}
	return &PasswordPolicy{
		MinLength:     DefaultMinPasswordLength,
		MaxSimilarity: DefaultMaxSimilarity,
		common:        common,
	}
}

// Check runs every rule and reports all failures at once.
func (p *PasswordPolicy) Check(password string, attrs PasswordAttributes) error {
	rules := []validation.Rule{
		validation.By(p.similarity(attrs)),
		validation.By(p.minLength),
		validation.By(p.notCommon),
		validation.By(notNumeric),
	}
	var reasons []string
	for _, rule := range rules {
		if err := validation.Validate(password, rule); err != nil {
			reasons = append(reasons, err.Error())
		}
	}
	if len(reasons) > 0 {
		return &domain.WeakPasswordError{Reasons: reasons}
	}
	return nil
}

func (p *PasswordPolicy) minLength(value interface{}) error {
	pw, _ := value.(string)
	if utf8.RuneCountInString(pw) < p.MinLength {
		return fmt.Errorf("this password is too short, it must contain at least %d characters", p.MinLength)
	}
	return nil
}

func (p *PasswordPolicy) notCommon(value interface{}) error {
	pw, _ := value.(string)
	if _, ok := p.common[strings.ToLower(strings.TrimSpace(pw))]; ok {
		return errors.New("this password is too common")
	}
	return nil
}

func notNumeric(value interface{}) error {
	pw, _ := value.(string)
	if pw != "" && is.Digit.Validate(pw) == nil {
		return errors.New("this password is entirely numeric")
	}
	return nil
}

var nonWord = regexp.MustCompile(`\W+`)

func (p *PasswordPolicy) similarity(attrs PasswordAttributes) validation.RuleFunc {
	return func(value interface{}) error {
		pw, _ := value.(string)
		pw = strings.ToLower(pw)
		for _, attr := range []struct{ label, value string }{
			{"username", attrs.Username},
			{"full name", attrs.FullName},
			{"email address", attrs.Email},
		} {
			if attr.value == "" {
				continue
			}
			lowered := strings.ToLower(attr.value)
			parts := append(nonWord.Split(lowered, -1), lowered)
			for _, part := range parts {
				if part == "" || p.tooShortToCompare(pw, part) {
					continue
				}
				if quickRatio(pw, part) >= p.MaxSimilarity {
					return fmt.Errorf("the password is too similar to the %s", attr.label)
				}
			}
		}
		return nil
	}
}

// tooShortToCompare skips attribute parts that are tiny compared to the
// password, where a high ratio is impossible anyway.
func (p *PasswordPolicy) tooShortToCompare(password, part string) bool {
	pwLen := utf8.RuneCountInString(password)
	partLen := utf8.RuneCountInString(part)
	return pwLen >= 10*partLen && float64(partLen) < p.MaxSimilarity/2*float64(pwLen)
}

// quickRatio is an upper bound on sequence similarity: twice the size of the
// multiset intersection of runes over the combined length.
func quickRatio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1
	}
	avail := make(map[rune]int)
	for _, r := range b {
		avail[r]++
	}
	matches := 0
	for _, r := range a {
		if avail[r] > 0 {
			avail[r]--
			matches++
		}
	}
	return 2 * float64(matches) / float64(total)
}
