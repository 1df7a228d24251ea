package feed

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

type Brand string

const (
	BrandGalaxy Brand = "GALAXY"
	BrandIPhone Brand = "IPHONE"
	BrandOther  Brand = "OTHER"
)

const (
	galaxyPrefix = "갤럭시"
	iphonePrefix = "아이폰"

	// UnknownCapacity is the label for offers without a capacity.
	UnknownCapacity = "미상"
)

// ParseBrand reads a brand filter value.
func ParseBrand(s string) (Brand, bool) {
	switch Brand(strings.ToUpper(strings.TrimSpace(s))) {
	case BrandGalaxy:
		return BrandGalaxy, true
	case BrandIPhone:
		return BrandIPhone, true
	case BrandOther:
		return BrandOther, true
	}
	return "", false
}

func DetectBrand(model string) Brand {
	switch {
	case strings.HasPrefix(model, galaxyPrefix):
		return BrandGalaxy
	case strings.HasPrefix(model, iphonePrefix):
		return BrandIPhone
	}
	return BrandOther
}

// BrandPrefix is the model-name prefix of a brand, "" for OTHER.
func BrandPrefix(b Brand) string {
	switch b {
	case BrandGalaxy:
		return galaxyPrefix
	case BrandIPhone:
		return iphonePrefix
	}
	return ""
}

var (
	iphoneFamily  = regexp.MustCompile(`^아이폰\s*(\d+)`)
	galaxySFamily = regexp.MustCompile(`^갤럭시\s*S\s*(\d+)`)
	foldFamily    = regexp.MustCompile(`^갤럭시\s*Z\s*폴드\s*(\d+)`)
	flipFamily    = regexp.MustCompile(`^갤럭시\s*Z\s*플립\s*(\d+)`)
	galaxyOther   = regexp.MustCompile(`^갤럭시\s*([^\d]+?)\s*(\d+)`)
	variantSuffix = regexp.MustCompile(`\s+(프로\s*맥스|프로|맥스|울트라|엣지|에어)$`)
)

// ExtractFamily reduces a model name to its line-up, e.g. "아이폰 16 프로"
// to "아이폰 16".
func ExtractFamily(model string) string {
	if model == "" {
		return ""
	}
	if m := iphoneFamily.FindStringSubmatch(model); m != nil {
		return "아이폰 " + m[1]
	}
	if m := galaxySFamily.FindStringSubmatch(model); m != nil {
		return "갤럭시 S" + m[1]
	}
	if m := foldFamily.FindStringSubmatch(model); m != nil {
		return "갤럭시 Z 폴드 " + m[1]
	}
	if m := flipFamily.FindStringSubmatch(model); m != nil {
		return "갤럭시 Z 플립 " + m[1]
	}
	if m := galaxyOther.FindStringSubmatch(model); m != nil {
		return "갤럭시 " + strings.TrimSpace(m[1]) + " " + m[2]
	}
	return variantSuffix.ReplaceAllString(model, "")
}

// NormalizeCapacity folds missing capacities onto UnknownCapacity.
func NormalizeCapacity(c *string) string {
	if c == nil || *c == "" || *c == UnknownCapacity {
		return UnknownCapacity
	}
	return *c
}

// SourceSite returns the registrable domain of an offer's source URL, or ""
// when the URL has no usable host.
func SourceSite(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}
	site, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return site
}
