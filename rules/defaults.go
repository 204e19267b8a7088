package rules

// DefaultSetVersion identifies the built-in rule set.
const DefaultSetVersion = "1.0"

// DefaultSet returns the built-in rule set. Deployments typically extend or
// override it with YAML rule files loaded on top (see Loader).
func DefaultSet() *Set {
	return &Set{
		Version: DefaultSetVersion,
		Rules: []*Rule{
			{
				ID:          "FORM-001",
				Category:    CategoryForm,
				Kind:        KindEmpty,
				Weight:      3.0,
				Severity:    SeverityCritical,
				HardBlocker: true,
				Message:     "De definitietekst is leeg.",
				Suggestion:  "Lever een niet-lege definitietekst aan.",
				Explanation: "An empty candidate can never be a usable definition.",
			},
			{
				ID:          "FORM-002",
				Category:    CategoryForm,
				Kind:        KindLength,
				Weight:      2.0,
				Severity:    SeverityError,
				HardBlocker: true,
				MinLength:   40,
				Message:     "De definitie is te kort (%s).",
				Suggestion:  "Breid de definitie uit tot een volledige omschrijving van het begrip.",
				GoodExamples: []string{
					"Een document waarmee een natuurlijk persoon zijn identiteit aantoont tegenover een bevoegde instantie.",
				},
				BadExamples: []string{"Een soort pasje."},
			},
			{
				ID:       "FORM-003",
				Category: CategoryForm,
				Weight:   1.0,
				Severity: SeverityWarning,
				Patterns: []string{
					`(?i)^(deze definitie|dit begrip|hieronder wordt|de term\b)`,
					`(?i)\b(betekent hier|wordt hier bedoeld)\b`,
				},
				Message:    "De definitie bevat een meta-inleiding: %s.",
				Suggestion: "Begin direct met de omschrijving, zonder verwijzing naar de definitie zelf.",
				BadExamples: []string{
					"Deze definitie beschrijft wat een verdachte is.",
				},
			},
			{
				ID:          "LANG-001",
				Category:    CategoryForm,
				Weight:      2.0,
				Severity:    SeverityError,
				HardBlocker: true,
				Patterns: []string{
					`(?i)\b(gewoon|hartstikke|best wel|een beetje|nou ja|enzovoort|enzo|oftewel dus)\b`,
					`(?i)\b(basically|kinda|sorta|you know)\b`,
				},
				Message:    "De definitie bevat informeel taalgebruik: %s.",
				Suggestion: "Gebruik formele, ambtelijke bewoordingen.",
				BadExamples: []string{
					"Een verdachte is gewoon iemand die iets gedaan zou kunnen hebben.",
				},
				GoodExamples: []string{
					"Een persoon ten aanzien van wie een redelijk vermoeden van schuld aan een strafbaar feit bestaat.",
				},
				Explanation: "Informal register is never acceptable in an established definition.",
			},
			{
				ID:          "LANG-002",
				Category:    CategoryForm,
				Weight:      2.0,
				Severity:    SeverityError,
				HardBlocker: true,
				Patterns: []string{
					`(?i)\b(the|and|with|which|according to|means that)\b`,
				},
				Message:    "De definitie mengt talen: %s.",
				Suggestion: "Schrijf de volledige definitie in één taal.",
				BadExamples: []string{
					"Een verdachte is een persoon which is suspected van een strafbaar feit.",
				},
			},
			{
				ID:          "STRUCT-001",
				Category:    CategoryStructure,
				Kind:        KindStructure,
				Weight:      2.0,
				Severity:    SeverityError,
				HardBlocker: true,
				MinWords:    6,
				Patterns: []string{
					`(?i)\b(die|dat|waarmee|waarbij|waarin|waardoor|bestaande uit|ten aanzien van|met als doel)\b`,
				},
				Message:    "De definitie mist een herkenbare structuur (genus en onderscheidend kenmerk).",
				Suggestion: "Formuleer de definitie als 'een <soort> die/dat <onderscheidend kenmerk>'.",
				GoodExamples: []string{
					"Een middel waarmee de identiteit van een persoon kan worden vastgesteld.",
				},
				BadExamples: []string{"Identiteit vaststellen."},
			},
			{
				ID:       "STRUCT-002",
				Category: CategoryStructure,
				Weight:   1.0,
				Severity: SeverityWarning,
				Patterns: []string{
					`(?i)\b(en ook|en verder|en daarnaast)\b.*\b(en ook|en verder|en daarnaast)\b`,
				},
				Message:    "De definitie rijgt opsommingen aaneen: %s.",
				Suggestion: "Beperk de definitie tot de kern en verplaats opsommingen naar een toelichting.",
			},
			{
				ID:          "ESS-001",
				Category:    CategoryEssence,
				Weight:      1.5,
				Severity:    SeverityWarning,
				Patterns: []string{
					`(?i)^(een|het|de)?\s*\w+\s+(wordt gebruikt om|wordt ingezet om|dient om|is bedoeld om)\b`,
					`(?i)\b(heeft als functie|heeft tot doel)\b`,
				},
				Message:    "De definitie beschrijft het gebruik in plaats van het wezen van het begrip: %s.",
				Suggestion: "Beschrijf wat het begrip ís, niet waarvoor het wordt gebruikt.",
				BadExamples: []string{
					"Een identiteitsmiddel wordt gebruikt om mensen te identificeren.",
				},
				GoodExamples: []string{
					"Een identiteitsmiddel is een middel waarmee de identiteit van een persoon kan worden vastgesteld.",
				},
			},
			{
				ID:       "ESS-002",
				Category: CategoryEssence,
				Weight:   1.0,
				Severity: SeverityWarning,
				Patterns: []string{
					`(?i)\b(bijvoorbeeld|zoals bijvoorbeeld|denk aan|e\.g\.)\b`,
				},
				Message:    "De definitie leunt op voorbeelden in plaats van een omschrijving: %s.",
				Suggestion: "Vervang voorbeelden door de onderscheidende kenmerken van het begrip.",
			},
			{
				ID:          "COH-001",
				Category:    CategoryCoherence,
				Kind:        KindCircular,
				Weight:      2.5,
				Severity:    SeverityCritical,
				HardBlocker: true,
				Message:     "De definitie is circulair: de term %s komt voor in de eigen omschrijving.",
				Suggestion:  "Omschrijf het begrip zonder de term zelf te gebruiken.",
				BadExamples: []string{
					"Een identiteitsmiddel is een middel voor identiteit.",
				},
				Explanation: "A definition that uses its own term explains nothing.",
			},
			{
				ID:       "COH-002",
				Category: CategoryCoherence,
				Weight:   1.0,
				Severity: SeverityWarning,
				Patterns: []string{
					`(?i)\b(ook wel\b.*\bgenoemd|is een synoniem voor|is hetzelfde als)\b`,
				},
				Message:    "De definitie verwijst naar een synoniem in plaats van te definiëren: %s.",
				Suggestion: "Registreer synoniemen apart en definieer het begrip inhoudelijk.",
			},
			{
				ID:       "INT-001",
				Category: CategoryIntegrity,
				Weight:   1.0,
				Severity: SeverityWarning,
				Patterns: []string{
					`(?i)\b(zie ook|zoals beschreven in|conform bijlage)\b`,
				},
				Message:    "De definitie bevat een externe verwijzing zonder grondslag: %s.",
				Suggestion: "Neem wettelijke grondslagen op in het veld juridische grondslag, niet in de tekst.",
			},
			{
				ID:          "INT-002",
				Category:    CategoryIntegrity,
				Kind:        KindUniqueness,
				Weight:      1.0,
				Severity:    SeverityWarning,
				Message:     "Er bestaat al een definitie voor deze term binnen dezelfde context (%s).",
				Suggestion:  "Overweeg de bestaande definitie bij te werken in plaats van een nieuwe vast te stellen.",
				Explanation: "Duplicate definitions within one context erode the shared vocabulary; this is a warning, not a hard failure.",
			},
			{
				ID:       "AI-001",
				Category: CategoryAI,
				Weight:   2.0,
				Severity: SeverityError,
				Patterns: []string{
					`(?i)\b(mogelijk|waarschijnlijk|zou kunnen zijn|lijkt te zijn|over het algemeen)\b`,
					`(?i)\b(as an ai|i cannot|als taalmodel)\b`,
				},
				Message:    "De definitie bevat onzekerheids- of modeltaal: %s.",
				Suggestion: "Formuleer stellig; een definitie drukt geen waarschijnlijkheid uit.",
				BadExamples: []string{
					"Een verdachte is waarschijnlijk iemand die een strafbaar feit heeft gepleegd.",
				},
			},
			{
				ID:       "AI-002",
				Category: CategoryAI,
				Weight:   1.0,
				Severity: SeverityWarning,
				Patterns: []string{
					`(?i)\b(ik|wij|mijn|onze mening)\b`,
				},
				Message:    "De definitie gebruikt de eerste persoon: %s.",
				Suggestion: "Schrijf onpersoonlijk en beschrijvend.",
			},
		},
	}
}
