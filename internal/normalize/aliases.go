package normalize

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultAliases covers the known column naming drift across exports.
var DefaultAliases = map[string]string{
	"Acct":                     ColPurchaseAccount,
	"Purchase Account":         ColPurchaseAccount,
	"Qty On Order/Backordered": ColQtyRemaining, // display name used by the export
}

// LoadAliases reads a YAML file mapping drifted source column names to
// canonical names. A missing path returns an empty map; the defaults always
// apply underneath.
func LoadAliases(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, eris.Wrapf(err, "normalize: read aliases %s", path)
	}

	aliases := map[string]string{}
	if err := yaml.Unmarshal(data, &aliases); err != nil {
		return nil, eris.Wrapf(err, "normalize: parse aliases %s", path)
	}
	return aliases, nil
}
