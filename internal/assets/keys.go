package assets

import (
	"fmt"
	"strings"
)

// VariantKey derives the storage key {category}/{owner}/{asset}/{code}.{ext}.
// The same inputs always produce the same key.
func VariantKey(category Category, ownerID, assetID, code, ext string) (string, error) {
	prefix, err := AssetPrefix(category, ownerID, assetID)
	if err != nil {
		return "", err
	}
	if err := checkSegment("variant code", code); err != nil {
		return "", err
	}
	if err := checkSegment("extension", ext); err != nil {
		return "", err
	}
	return prefix + code + "." + ext, nil
}

// AssetPrefix returns the key prefix shared by every variant of one asset,
// including the trailing slash.
func AssetPrefix(category Category, ownerID, assetID string) (string, error) {
	if err := checkSegment("category", string(category)); err != nil {
		return "", err
	}
	if err := checkSegment("rec resource id", ownerID); err != nil {
		return "", err
	}
	if err := checkSegment("asset id", assetID); err != nil {
		return "", err
	}
	return string(category) + "/" + ownerID + "/" + assetID + "/", nil
}

func checkSegment(name, s string) error {
	switch {
	case strings.TrimSpace(s) == "":
		return fmt.Errorf("%w: %s is required", ErrInvalidArgument, name)
	case strings.ContainsAny(s, `/\`), strings.Contains(s, ".."):
		return fmt.Errorf("%w: invalid %s %q", ErrInvalidArgument, name, s)
	}
	return nil
}
