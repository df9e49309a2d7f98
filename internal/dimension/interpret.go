package dimension

// Level is a coarse theta band used for interpretation.
type Level string

const (
	LevelVeryHigh Level = "very_high"
	LevelHigh     Level = "high"
	LevelModerate Level = "moderate"
	LevelLow      Level = "low"
	LevelVeryLow  Level = "very_low"
)

// Band boundaries on the theta scale. A theta equal to a boundary belongs
// to the band above it.
const (
	veryHighFloor = 1.5
	highFloor     = 0.5
	moderateFloor = -0.5
	lowFloor      = -1.5
)

// LevelFor maps theta to its interpretation band.
func LevelFor(theta float64) Level {
	switch {
	case theta >= veryHighFloor:
		return LevelVeryHigh
	case theta >= highFloor:
		return LevelHigh
	case theta >= moderateFloor:
		return LevelModerate
	case theta >= lowFloor:
		return LevelLow
	default:
		return LevelVeryLow
	}
}

// DisplayName returns a human-readable label for the level.
func (l Level) DisplayName() string {
	switch l {
	case LevelVeryHigh:
		return "Very High"
	case LevelHigh:
		return "High"
	case LevelModerate:
		return "Moderate"
	case LevelLow:
		return "Low"
	case LevelVeryLow:
		return "Very Low"
	default:
		return string(l)
	}
}

// LevelText is the presentational text for one (dimension, level) cell.
type LevelText struct {
	Strength    string `json:"strength" yaml:"strength"`
	Development string `json:"development" yaml:"development"`
}

// TextTable supplies interpretation text. Implementations must be
// deterministic; swapping tables never affects numeric results.
type TextTable interface {
	Text(dimensionID string, level Level) LevelText
}

// StaticTable is a TextTable backed by a nested map. Missing cells fall back
// to generic text built from the level.
type StaticTable map[string]map[Level]LevelText

// Text implements TextTable.
func (t StaticTable) Text(dimensionID string, level Level) LevelText {
	if byLevel, ok := t[dimensionID]; ok {
		if txt, ok := byLevel[level]; ok {
			return txt
		}
	}
	return genericText(level)
}

func genericText(level Level) LevelText {
	switch level {
	case LevelVeryHigh, LevelHigh:
		return LevelText{
			Strength:    "A clear and consistent strength.",
			Development: "Watch for overuse in situations that call for restraint.",
		}
	case LevelModerate:
		return LevelText{
			Strength:    "A balanced, situational approach.",
			Development: "Practice applying this trait deliberately when stakes are high.",
		}
	default:
		return LevelText{
			Strength:    "A cautious, measured approach.",
			Development: "A priority area for deliberate development.",
		}
	}
}

// DefaultTextTable returns the built-in English text for the default set.
func DefaultTextTable() StaticTable {
	return defaultText
}

var defaultText = StaticTable{
	RiskTaking: {
		LevelVeryHigh: {"Acts decisively on bold, uncertain opportunities.", "Stress-test big bets with explicit downside limits."},
		LevelHigh:     {"Comfortable committing resources before all facts are in.", "Pair quick decisions with a short risk checklist."},
		LevelModerate: {"Weighs upside and downside before committing.", "Set clear thresholds for when to move faster."},
		LevelLow:      {"Protects resources and avoids unnecessary exposure.", "Try small, reversible experiments to build risk tolerance."},
		LevelVeryLow:  {"Strongly preserves stability and existing assets.", "Work with a partner who can champion calculated bets."},
	},
	Innovation: {
		LevelVeryHigh: {"Constantly generates original products and processes.", "Filter ideas against customer evidence before building."},
		LevelHigh:     {"Regularly spots new ways to create value.", "Finish and ship before chasing the next idea."},
		LevelModerate: {"Adapts proven ideas to new settings.", "Schedule regular time for exploring unfamiliar approaches."},
		LevelLow:      {"Relies on established, reliable methods.", "Study adjacent industries for transferable ideas."},
		LevelVeryLow:  {"Strong preference for the familiar and tested.", "Invite creative collaborators into planning sessions."},
	},
	AchievementDrive: {
		LevelVeryHigh: {"Sets ambitious goals and pursues them relentlessly.", "Guard against burnout and over-committing the team."},
		LevelHigh:     {"Motivated by measurable progress and results.", "Balance outcome goals with learning goals."},
		LevelModerate: {"Works steadily toward clear objectives.", "Raise targets gradually to stretch performance."},
		LevelLow:      {"Prefers comfortable, sustainable pacing.", "Break long-term aims into visible weekly milestones."},
		LevelVeryLow:  {"Values balance over competitive achievement.", "Find an accountability partner for key targets."},
	},
	Autonomy: {
		LevelVeryHigh: {"Thrives when fully self-directed.", "Build in checkpoints where others can challenge decisions."},
		LevelHigh:     {"Prefers independent judgement and control of work.", "Delegate deliberately instead of doing everything alone."},
		LevelModerate: {"Comfortable both leading and following structure.", "Clarify which decisions are yours to own."},
		LevelLow:      {"Works best with guidance and shared decisions.", "Practice making and owning small independent calls."},
		LevelVeryLow:  {"Relies heavily on external direction.", "Consider a franchise or partnership model with clear playbooks."},
	},
	Resilience: {
		LevelVeryHigh: {"Recovers quickly and learns from setbacks.", "Notice when persistence becomes sunk-cost thinking."},
		LevelHigh:     {"Stays composed and persistent under pressure.", "Share coping strategies with the wider team."},
		LevelModerate: {"Recovers from setbacks given some time.", "Prepare contingency plans before pressure peaks."},
		LevelLow:      {"Setbacks weigh noticeably on momentum.", "Build a support network and routines for hard periods."},
		LevelVeryLow:  {"Pressure and failure are significantly draining.", "Start with lower-stakes ventures while building coping skills."},
	},
	SocialInfluence: {
		LevelVeryHigh: {"Persuades, networks and rallies people naturally.", "Back persuasion with data to sustain trust."},
		LevelHigh:     {"Builds useful relationships and wins support.", "Invest in listening as much as pitching."},
		LevelModerate: {"Effective with familiar audiences.", "Practice pitching to investors and unfamiliar groups."},
		LevelLow:      {"Prefers working through tasks over people.", "Join one industry network and attend consistently."},
		LevelVeryLow:  {"Finds selling and networking draining.", "Partner with someone who owns sales and outreach."},
	},
	StrategicPlanning: {
		LevelVeryHigh: {"Thinks in long-range, structured plans.", "Keep plans flexible enough to react to the market."},
		LevelHigh:     {"Prepares thoroughly and anticipates obstacles.", "Avoid planning past the point of useful certainty."},
		LevelModerate: {"Plans key steps while improvising details.", "Write a one-page plan with quarterly milestones."},
		LevelLow:      {"Prefers to act first and adjust on the fly.", "Adopt a simple cash-flow and milestone tracker."},
		LevelVeryLow:  {"Rarely sets structured plans.", "Get help from a mentor or advisor to formalize a plan."},
	},
}
