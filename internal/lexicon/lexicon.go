// Package lexicon holds the lookup tables the attendance pipeline matches
// against: OCR glyph repairs, role and connective vocabularies, the given-name
// dictionary used to split glued names, and absence words.
//
// A Lexicon is a plain value. Pipeline components copy what they need at
// construction time, so a loaded Lexicon can be shared across goroutines.
package lexicon

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Substitution struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type Lexicon struct {
	// Applied in order; earlier entries win on overlapping input.
	Substitutions    []Substitution `yaml:"substitutions"`
	Symbols          string         `yaml:"symbols"`
	Roles            []string       `yaml:"roles"`
	Connectives      []string       `yaml:"connectives"`
	GivenNames       []string       `yaml:"given_names"`
	AbsenceWords     []string       `yaml:"absence_words"`
	AbsenceSentinel  string         `yaml:"absence_sentinel"`
	ColumnSeparators []string       `yaml:"column_separators"`
	PresenceMarks    []string       `yaml:"presence_marks"`
}

func Default() Lexicon {
	return Lexicon{
		Substitutions: []Substitution{
			{From: "Ã¡", To: "á"}, {From: "Ã¢", To: "â"}, {From: "Ã£", To: "ã"},
			{From: "Ã©", To: "é"}, {From: "Ãª", To: "ê"}, {From: "Ã\u00ad", To: "í"},
			{From: "Ã³", To: "ó"}, {From: "Ã´", To: "ô"}, {From: "Ãµ", To: "õ"},
			{From: "Ãº", To: "ú"}, {From: "Ã§", To: "ç"}, {From: "Ã‡", To: "Ç"},
			{From: "Ã‰", To: "É"}, {From: "Ã“", To: "Ó"},
			{From: "—", To: " "}, {From: "–", To: " "}, {From: "‒", To: " "},
			{From: "|", To: " "}, {From: "¦", To: " "}, {From: "/", To: " "},
			{From: "\\", To: " "}, {From: "_", To: " "}, {From: "~", To: " "},
			{From: "°", To: " "}, {From: "º", To: " "}, {From: "ª", To: " "},
			{From: "¬", To: " "}, {From: "•", To: " "}, {From: "·", To: " "},
		},
		Symbols: `"'` + "`" + `´«»“”‘’[](){}<>*#%@&^=+$§¨!?;:,`,
		Roles: []string{
			"PEDREIRO", "SERVENTE", "PINTOR", "ELETRICISTA", "CARPINTEIRO", "ARMADOR",
			"ENCANADOR", "MESTRE", "ENCARREGADO", "AJUDANTE", "SOLDADOR", "MOTORISTA",
			"OPERADOR", "VIGIA", "ALMOXARIFE", "GESSEIRO", "AZULEJISTA", "BOMBEIRO",
			"TECNICO", "APONTADOR", "MONTADOR", "SERRALHEIRO", "MARCENEIRO",
			"MASON", "LABORER", "PAINTER", "ELECTRICIAN", "CARPENTER", "PLUMBER",
			"WELDER", "HELPER", "FOREMAN", "DRIVER",
		},
		Connectives: []string{"O", "A", "E", "DE", "DA", "DO", "DAS", "DOS", "EM", "NA", "NO", "OF", "THE", "AND"},
		GivenNames: []string{
			"ADRIANO", "ADRIANA", "AILTON", "ALDENIR", "ALDO", "ALEX", "ALEXANDRE", "ALINE",
			"ANA", "ANDRE", "ANTONIO", "ANTONIA", "BRUNO", "CARLOS", "CICERO", "CLAUDIO",
			"DANIEL", "DIEGO", "EDSON", "EDUARDO", "FABIO", "FELIPE", "FERNANDO",
			"FERNANDA", "FRANCISCO", "FRANCISCA", "GABRIEL", "GERALDO", "GILSON",
			"GUSTAVO", "JOAO", "JOSE", "JORGE", "JULIANA", "JULIO", "LEANDRO", "LUCAS",
			"LUIZ", "LUIS", "MANOEL", "MANUEL", "MARCELO", "MARCIA", "MARCOS", "MARIA",
			"MATEUS", "PATRICIA", "PAULO", "PEDRO", "RAFAEL", "RAIMUNDO", "RENATO",
			"RICARDO", "ROBERTO", "RODRIGO", "ROGERIO", "SANDRA", "SEBASTIAO", "SERGIO",
			"THIAGO", "TIAGO", "VALDIR", "VALMIR", "VITOR", "WELLINGTON", "WESLEY",
		},
		AbsenceWords:     []string{"FALTA", "FALTOU", "AUSENTE", "AUSENCIA", "ABSENT", "ABSENCE"},
		AbsenceSentinel:  "F",
		ColumnSeparators: []string{"—", "–", "|", "[", "]", "/"},
		PresenceMarks:    []string{"P", "PRES", "PRESENTE", "X", "✓", "✔"},
	}
}

// Load reads a YAML lexicon. Keys present in the file replace the defaults,
// absent keys keep them. An empty path returns Default().
func Load(path string) (Lexicon, error) {
	lex := Default()
	if strings.TrimSpace(path) == "" {
		return lex, nil
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("read lexicon: %w", err)
	}
	if err := yaml.Unmarshal(blob, &lex); err != nil {
		return Lexicon{}, fmt.Errorf("parse lexicon %s: %w", path, err)
	}
	if err := lex.Validate(); err != nil {
		return Lexicon{}, err
	}
	return lex, nil
}

func (l Lexicon) Validate() error {
	for i, s := range l.Substitutions {
		if s.From == "" {
			return fmt.Errorf("lexicon: substitution %d has empty 'from'", i)
		}
	}
	if len([]rune(l.AbsenceSentinel)) > 1 {
		return fmt.Errorf("lexicon: absence sentinel must be a single letter, got %q", l.AbsenceSentinel)
	}
	return nil
}

// Marshal renders the lexicon as YAML, e.g. to seed an override file.
func (l Lexicon) Marshal() ([]byte, error) {
	return yaml.Marshal(l)
}
