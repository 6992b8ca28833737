package catalog

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/smartstore/Smartstore-sub032/internal/domain"
	"github.com/smartstore/Smartstore-sub032/internal/orm/hooks"
)

// ErrEmptySlug is returned when neither slug nor name yield a usable slug
var ErrEmptySlug = errors.New("category slug is empty")

// SlugNormalizer rewrites category slugs into their URL form before the
// write. It runs ahead of other category hooks so they see the final slug.
type SlugNormalizer struct {
	hooks.EntityHook[*domain.Category]
}

// HookOrder returns -10
func (SlugNormalizer) HookOrder() int {
	return -10
}

// HookLifetime returns Singleton
func (SlugNormalizer) HookLifetime() hooks.Lifetime {
	return hooks.Singleton
}

// OnInserting normalizes the slug of a new category
func (s SlugNormalizer) OnInserting(ctx *hooks.Context, entry *hooks.HookedEntity) (hooks.Result, error) {
	return s.normalize(entry)
}

// OnUpdating normalizes the slug of a changed category
func (s SlugNormalizer) OnUpdating(ctx *hooks.Context, entry *hooks.HookedEntity) (hooks.Result, error) {
	if !entry.HasAnyModified("Slug", "Name") {
		return hooks.Ok, nil
	}
	return s.normalize(entry)
}

func (SlugNormalizer) normalize(entry *hooks.HookedEntity) (hooks.Result, error) {
	category := entry.Entity().(*domain.Category)

	source := category.Slug
	if strings.TrimSpace(source) == "" {
		source = category.Name
	}

	slug := Slugify(source)
	if slug == "" {
		return hooks.Failed, ErrEmptySlug
	}
	category.Slug = slug
	return hooks.Ok, nil
}

// Slugify lowercases s, strips diacritics and joins the remaining letter and
// digit runs with single dashes: "Crème Brûlée & Co." -> "creme-brulee-co"
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}
