package archive

import (
	"fmt"
	"strings"

	"bannergen/internal/domain"
)

// StorageKey places an asset under banners/<wallet>/<yyyy>/<mm>/<dd>/<type>-<id><ext>.
func StorageKey(record domain.BannerRecord, mime string) string {
	wallet := safeSegment(record.WalletAddress)
	if wallet == "" {
		wallet = "anonymous"
	}
	id := safeSegment(record.ID)
	if id == "" {
		id = fmt.Sprintf("seed-%d", record.Seed)
	}
	outputType := string(record.OutputType)
	if outputType == "" {
		outputType = string(domain.OutputBanner)
	}
	day := record.CreatedAt.UTC()
	return fmt.Sprintf("banners/%s/%04d/%02d/%02d/%s-%s%s",
		wallet, day.Year(), int(day.Month()), day.Day(), outputType, id, extensionForMIME(mime))
}

func extensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/svg+xml":
		return ".svg"
	case "image/png", "":
		return ".png"
	default:
		return ".bin"
	}
}

// safeSegment keeps path segments to a conservative alphabet.
func safeSegment(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > 64 {
		out = out[:64]
	}
	return out
}
