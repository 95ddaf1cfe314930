package menu

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"cafeteria-planner/internal/recipe"

	"gopkg.in/yaml.v3"
)

// Weekday is one of the five service days.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
)

// Weekdays is the fixed five-day week in service order.
var Weekdays = [...]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

var weekdayNames = [...]string{"monday", "tuesday", "wednesday", "thursday", "friday"}

var weekdayAliases = map[string]Weekday{
	"monday": Monday, "mon": Monday, "lunes": Monday, "lun": Monday,
	"tuesday": Tuesday, "tue": Tuesday, "martes": Tuesday, "mar": Tuesday,
	"wednesday": Wednesday, "wed": Wednesday, "miercoles": Wednesday, "mie": Wednesday,
	"thursday": Thursday, "thu": Thursday, "jueves": Thursday, "jue": Thursday,
	"friday": Friday, "fri": Friday, "viernes": Friday, "vie": Friday,
}

// Slot is a course position within a day.
type Slot int

const (
	SlotMain Slot = iota
	SlotSide
	SlotDessert
)

// Slots lists the three courses of a day.
var Slots = [...]Slot{SlotMain, SlotSide, SlotDessert}

var slotNames = [...]string{"main", "side", "dessert"}

var slotAliases = map[string]Slot{
	"main": SlotMain, "principal": SlotMain,
	"side": SlotSide, "acompanamiento": SlotSide, "guarnicion": SlotSide,
	"dessert": SlotDessert, "postre": SlotDessert,
}

var (
	ErrUnknownWeekday = errors.New("unknown weekday")
	ErrUnknownSlot    = errors.New("unknown menu slot")
)

func foldKey(s string) string {
	return strings.ToLower(recipe.FoldAccents(strings.TrimSpace(s)))
}

// ParseWeekday accepts English or Spanish day names, with or without accents.
func ParseWeekday(s string) (Weekday, error) {
	if d, ok := weekdayAliases[foldKey(s)]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownWeekday, s)
}

func (d Weekday) Valid() bool { return d >= Monday && d <= Friday }

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

func (d Weekday) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownWeekday, int(d))
	}
	return []byte(d.String()), nil
}

func (d *Weekday) UnmarshalText(b []byte) error {
	parsed, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseSlot accepts English or Spanish course names.
func ParseSlot(s string) (Slot, error) {
	if slot, ok := slotAliases[foldKey(s)]; ok {
		return slot, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSlot, s)
}

func (s Slot) Valid() bool { return s >= SlotMain && s <= SlotDessert }

func (s Slot) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Slot(%d)", int(s))
	}
	return slotNames[s]
}

func (s Slot) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSlot, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Slot) UnmarshalText(b []byte) error {
	parsed, err := ParseSlot(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Category returns the recipe category that normally fills this slot.
func (s Slot) Category() recipe.Category {
	switch s {
	case SlotSide:
		return recipe.CategorySide
	case SlotDessert:
		return recipe.CategoryDessert
	}
	return recipe.CategoryMain
}

// DayAssignment holds the recipe names chosen for one day. Empty means no selection.
type DayAssignment struct {
	Main    string `json:"main" yaml:"main"`
	Side    string `json:"side" yaml:"side"`
	Dessert string `json:"dessert" yaml:"dessert"`
}

// Get returns the recipe name assigned to slot.
func (a DayAssignment) Get(slot Slot) string {
	switch slot {
	case SlotMain:
		return a.Main
	case SlotSide:
		return a.Side
	case SlotDessert:
		return a.Dessert
	}
	return ""
}

// Set assigns name to slot. It panics on an invalid slot.
func (a *DayAssignment) Set(slot Slot, name string) {
	switch slot {
	case SlotMain:
		a.Main = name
	case SlotSide:
		a.Side = name
	case SlotDessert:
		a.Dessert = name
	default:
		panic(fmt.Sprintf("menu: invalid slot %d", int(slot)))
	}
}

// Empty reports whether no slot has a selection.
func (a DayAssignment) Empty() bool {
	return a.Main == "" && a.Side == "" && a.Dessert == ""
}

// WeeklyMenu maps each weekday to its assignment. The zero value is an empty menu.
type WeeklyMenu struct {
	days [len(Weekdays)]DayAssignment
}

// Day returns the assignment for d.
func (m WeeklyMenu) Day(d Weekday) DayAssignment {
	if !d.Valid() {
		return DayAssignment{}
	}
	return m.days[d]
}

// SetDay replaces a whole day.
func (m *WeeklyMenu) SetDay(d Weekday, a DayAssignment) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownWeekday, int(d))
	}
	m.days[d] = a
	return nil
}

// Assign sets a single slot. An empty name clears it.
func (m *WeeklyMenu) Assign(d Weekday, slot Slot, name string) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownWeekday, int(d))
	}
	if !slot.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownSlot, int(slot))
	}
	m.days[d].Set(slot, strings.TrimSpace(name))
	return nil
}

// Reset clears every day.
func (m *WeeklyMenu) Reset() {
	*m = WeeklyMenu{}
}

// Empty reports whether nothing is assigned on any day.
func (m WeeklyMenu) Empty() bool {
	for _, a := range m.days {
		if !a.Empty() {
			return false
		}
	}
	return true
}

// Names returns every non-empty recipe name referenced by the menu, in weekday
// and slot order, duplicates included.
func (m WeeklyMenu) Names() []string {
	var names []string
	for _, d := range Weekdays {
		for _, s := range Slots {
			if n := m.days[d].Get(s); n != "" {
				names = append(names, n)
			}
		}
	}
	return names
}

func (m WeeklyMenu) toMap() map[string]DayAssignment {
	out := make(map[string]DayAssignment, len(Weekdays))
	for _, d := range Weekdays {
		out[d.String()] = m.days[d]
	}
	return out
}

func (m *WeeklyMenu) fromMap(raw map[string]map[string]string) error {
	var parsed WeeklyMenu
	for dayKey, slots := range raw {
		d, err := ParseWeekday(dayKey)
		if err != nil {
			return err
		}
		for slotKey, name := range slots {
			slot, err := ParseSlot(slotKey)
			if err != nil {
				return err
			}
			if err := parsed.Assign(d, slot, name); err != nil {
				return err
			}
		}
	}
	*m = parsed
	return nil
}

// MarshalJSON writes {"monday": {"main": ..., "side": ..., "dessert": ...}, ...}.
func (m WeeklyMenu) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.toMap())
}

// UnmarshalJSON accepts English or Spanish day and slot keys; missing days stay empty.
func (m *WeeklyMenu) UnmarshalJSON(b []byte) error {
	var raw map[string]map[string]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	return m.fromMap(raw)
}

func (m WeeklyMenu) MarshalYAML() (interface{}, error) {
	return m.toMap(), nil
}

func (m *WeeklyMenu) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]map[string]string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return m.fromMap(raw)
}

// Load decodes a menu document in YAML or JSON. An empty document is an empty menu.
func Load(r io.Reader) (WeeklyMenu, error) {
	var m WeeklyMenu
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return WeeklyMenu{}, nil
		}
		return WeeklyMenu{}, fmt.Errorf("failed to decode menu: %w", err)
	}
	return m, nil
}
