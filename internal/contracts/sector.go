package contracts

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Sector is a closed set of sector tags
type Sector string

const (
	SectorIT             Sector = "IT"
	SectorBanking        Sector = "Banking"
	SectorEnergy         Sector = "Energy"
	SectorFMCG           Sector = "FMCG"
	SectorInfrastructure Sector = "Infrastructure"
	SectorPharma         Sector = "Pharma"
	SectorAutomobile     Sector = "Automobile"
	SectorMetals         Sector = "Metals"
)

var allSectors = []Sector{
	SectorIT,
	SectorBanking,
	SectorEnergy,
	SectorFMCG,
	SectorInfrastructure,
	SectorPharma,
	SectorAutomobile,
	SectorMetals,
}

// AllSectors returns every known sector in display order
func AllSectors() []Sector {
	out := make([]Sector, len(allSectors))
	copy(out, allSectors)
	return out
}

// Valid reports whether s is one of the known sectors
func (s Sector) Valid() bool {
	for _, known := range allSectors {
		if s == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer
func (s Sector) String() string {
	return string(s)
}

// ParseSector parses a sector tag case-insensitively
func ParseSector(raw string) (Sector, error) {
	trimmed := strings.TrimSpace(raw)
	for _, known := range allSectors {
		if strings.EqualFold(trimmed, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown sector %q", raw)
}

// UnmarshalJSON accepts any casing of a known sector.
// Unknown tags are kept verbatim so lookups fall back to policy defaults.
func (s *Sector) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("sector must be a string: %w", err)
	}
	if parsed, err := ParseSector(raw); err == nil {
		*s = parsed
		return nil
	}
	*s = Sector(raw)
	return nil
}

// sectorKeywords maps industry keywords to sectors, checked in order
var sectorKeywords = []struct {
	sector   Sector
	keywords []string
}{
	{SectorIT, []string{"software", "technology", "it services"}},
	{SectorBanking, []string{"bank", "financial"}},
	{SectorEnergy, []string{"oil", "gas", "energy", "petroleum"}},
	{SectorFMCG, []string{"consumer", "fmcg", "food", "beverage"}},
	{SectorInfrastructure, []string{"construction", "infrastructure", "engineering"}},
	{SectorPharma, []string{"pharma", "healthcare", "drug"}},
	{SectorAutomobile, []string{"auto", "vehicle", "motor"}},
	{SectorMetals, []string{"steel", "metal", "mining"}},
}

// InferSector maps a free-text industry description to a sector.
// Unrecognised industries map to IT, matching the market data provider's default.
func InferSector(industry string) Sector {
	lower := strings.ToLower(industry)
	for _, entry := range sectorKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.sector
			}
		}
	}
	return SectorIT
}
