package query

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/ragcore/internal/domain/entity"
)

// typeRule holds the compiled patterns and the supporting keywords of one
// entity type. Mission types and frequency bands have no supporting keywords.
type typeRule struct {
	typ      entity.Type
	patterns []*compiledPattern
	keywords []string
}

type compiledPattern struct {
	source  string
	re      *regexp.Regexp
	numeric bool
}

// rules is the immutable extraction table, in extraction order.
var rules = buildRules([]struct {
	typ      entity.Type
	patterns []string
	keywords []string
}{
	{
		typ: entity.Satellite,
		patterns: []string{
			`\bINSAT-?3[A-Z]{1,2}\b`,
			`\bOCEANSAT-?\d\b`,
			`\bSCATSAT-?\d\b`,
			`\bKALPANA-?\d\b`,
			`\bCARTOSAT-?\d[A-Z]?\b`,
			`\bRESOURCESAT-?\d[A-Z]?\b`,
			`\bMEGHA-TROPIQUES\b`,
			`\bSARAL(?:-AltiKa)?\b`,
		},
		keywords: []string{"satellite", "mission", "orbit", "launch"},
	},
	{
		typ: entity.MissionType,
		patterns: []string{
			`\b(?:weather|meteorological|oceanographic|earth observation|remote sensing|communication)\s+(?:satellite|mission)s?\b`,
			`\b(?:geostationary|polar|sun-synchronous)\s+orbit\b`,
		},
	},
	{
		typ: entity.DataProduct,
		patterns: []string{
			`\bsea surface temperature\b`,
			`\bSST\b`,
			`\bcloud motion vectors?\b`,
			`\boutgoing longwave radiation\b`,
			`\bOLR\b`,
			`\bchlorophyll(?:-a)?\b`,
			`\bsoil moisture\b`,
			`\btotal precipitable water\b`,
			`\bocean surface winds?\b`,
			`\bL[1-4][A-C]?\s+(?:data|product)s?\b`,
		},
		keywords: []string{"data", "product", "parameter", "measurement"},
	},
	{
		typ: entity.Organization,
		patterns: []string{
			`\bISRO\b`,
			`\bMOSDAC\b`,
			`\bSAC\b`,
			`\bNRSC\b`,
			`\bIMD\b`,
			`\bINCOIS\b`,
			`\bSpace Applications Centre\b`,
		},
		keywords: []string{"organization", "agency", "institute", "center"},
	},
	{
		typ: entity.Location,
		patterns: []string{
			`\bIndian Ocean\b`,
			`\bBay of Bengal\b`,
			`\bArabian Sea\b`,
			`\bIndia\b`,
			`\bHimalayas?\b`,
			`\bAhmedabad\b`,
			`\bKerala\b`,
			`\bGujarat\b`,
		},
		keywords: []string{"region", "area", "coast", "ocean"},
	},
	{
		typ: entity.FrequencyBand,
		patterns: []string{
			`\b(?:Ku|Ka|C|S|X|L)[- ]band\b`,
			`\b\d+(?:\.\d+)?\s?(?:GHz|MHz)\b`,
		},
	},
	{
		typ: entity.Instrument,
		patterns: []string{
			`\bimager\b`,
			`\bsounder\b`,
			`\bscatterometer\b`,
			`\bradiometer\b`,
			`\baltimeter\b`,
			`\bOCM(?:-\d)?\b`,
			`\bVHRR\b`,
			`\bMADRAS\b`,
			`\bSAPHIR\b`,
		},
		keywords: []string{"instrument", "sensor", "detector", "payload"},
	},
})

func buildRules(table []struct {
	typ      entity.Type
	patterns []string
	keywords []string
}) []typeRule {
	out := make([]typeRule, len(table))
	for i, row := range table {
		r := typeRule{typ: row.typ, keywords: row.keywords}
		for _, p := range row.patterns {
			r.patterns = append(r.patterns, &compiledPattern{
				source:  p,
				re:      regexp.MustCompile(`(?i)` + p),
				numeric: strings.Contains(p, `\d`) || strings.ContainsAny(p, "0123456789"),
			})
		}
		out[i] = r
	}
	return out
}
