// Package pos maps left/right context ids to part-of-speech labels and
// scores label sequences with fixed, hand-tuned n-gram adjustments.
package pos

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// BOS is the label used for id 0 in a preceding position.
const BOS = "BOS"

// ErrDefinitionsMissing is returned when id.def cannot be found.
var ErrDefinitionsMissing = errors.New("pos definitions not found")

// Info describes one context id.
type Info struct {
	POS    string
	SubPOS string
	Label  string
}

// Unknown is returned for ids that id.def does not define.
var Unknown = Info{POS: "不明", SubPOS: "*", Label: "不明"}

// NewInfo builds an Info with its derived label.
func NewInfo(pos, subpos string) Info {
	if pos == "" {
		pos = "*"
	}
	if subpos == "" {
		subpos = "*"
	}
	return Info{POS: pos, SubPOS: subpos, Label: label(pos, subpos)}
}

func label(pos, subpos string) string {
	if subpos == "*" {
		return pos
	}
	return pos + "-" + subpos
}

// Coarse returns the part of a label before its first '-'.
func Coarse(label string) string {
	if i := strings.IndexByte(label, '-'); i >= 0 {
		return label[:i]
	}
	return label
}

// Table is an immutable id -> Info mapping plus the adjustment rules.
type Table struct {
	infos map[int]Info
	order []int
	rules *Rules
}

// Load parses an id.def file. Each line is "<id> <pos>,<subpos>,...".
// Lines without a space or with a non-numeric id are skipped.
func Load(path string, rules *Rules) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDefinitionsMissing, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	t := New(rules)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		sp := strings.IndexByte(line, ' ')
		if sp < 0 {
			continue
		}
		id, err := strconv.Atoi(line[:sp])
		if err != nil {
			continue
		}
		parts := strings.Split(line[sp+1:], ",")
		subpos := "*"
		if len(parts) > 1 {
			subpos = parts[1]
		}
		t.Define(id, parts[0], subpos)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	log.Debugf("POS table loaded: %s (%d ids)", path, len(t.infos))
	return t, nil
}

// New returns an empty table. A nil rules uses DefaultRules.
func New(rules *Rules) *Table {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Table{infos: make(map[int]Info), rules: rules}
}

// Define sets the info for id. Later definitions of the same id win.
func (t *Table) Define(id int, pos, subpos string) {
	if _, ok := t.infos[id]; !ok {
		t.order = append(t.order, id)
	}
	t.infos[id] = NewInfo(pos, subpos)
}

// Len returns the number of defined ids.
func (t *Table) Len() int {
	return len(t.infos)
}

// Lookup returns the info for id, or Unknown.
func (t *Table) Lookup(id int) Info {
	if info, ok := t.infos[id]; ok {
		return info
	}
	return Unknown
}

// FindID returns the first id, in definition order, whose pos and subpos
// match. An empty subpos matches any subcategory.
func (t *Table) FindID(pos, subpos string) (int, bool) {
	for _, id := range t.order {
		info := t.infos[id]
		if info.POS != pos {
			continue
		}
		if subpos == "" || info.SubPOS == subpos {
			return id, true
		}
	}
	return 0, false
}

// Rules returns the adjustment rules the table scores with.
func (t *Table) Rules() *Rules {
	return t.rules
}

// preceding resolves an id that appears before the scored word.
func (t *Table) preceding(id int) string {
	if id == 0 {
		return BOS
	}
	return t.Lookup(id).Label
}

// PairAdjustment scores the transition prevRight -> nextLeft.
func (t *Table) PairAdjustment(prevRight, nextLeft int) int {
	return t.rules.Pair(t.preceding(prevRight), t.Lookup(nextLeft).Label)
}

// TripletAdjustment scores a -> b -> c where c is the incoming left id.
func (t *Table) TripletAdjustment(a, b, c int) int {
	return t.rules.Triplet(t.preceding(a), t.preceding(b), t.Lookup(c).Label)
}

// QuadrupletAdjustment scores a -> b -> c -> d where d is the incoming left id.
func (t *Table) QuadrupletAdjustment(a, b, c, d int) int {
	return t.rules.Quadruplet(t.preceding(a), t.preceding(b), t.preceding(c), t.Lookup(d).Label)
}
