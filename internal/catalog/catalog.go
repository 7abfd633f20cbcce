// Package catalog holds the static interview configuration tables:
// topics, company styles, difficulty levels and the achievement list.
// Lookups are lenient: unknown ids fall back to the documented default
// instead of erroring.
package catalog

import "fmt"

type Topic struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SystemPrompt string `json:"-"`
}

type Company struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Style string `json:"-"`
}

type Difficulty struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	PromptModifier string  `json:"-"`
	XPMultiplier   float64 `json:"-"`
}

type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	XPReward    int    `json:"xp_reward"`
	Icon        string `json:"icon"`
}

const (
	DefaultTopicID      = "general"
	DefaultCompanyID    = "default"
	DefaultDifficultyID = "medium"
)

var topics = map[string]Topic{
	"dsa": {
		ID:   "dsa",
		Name: "Data Structures & Algorithms",
		SystemPrompt: `You are a senior software engineer conducting a DSA interview.
Ask questions about arrays, linked lists, trees, graphs, sorting, searching, dynamic programming.
Start with easier concepts and gradually increase difficulty based on candidate's responses.
Keep responses concise (under 50 words). Provide hints if the candidate is stuck.`,
	},
	"system_design": {
		ID:   "system_design",
		Name: "System Design",
		SystemPrompt: `You are a principal engineer conducting a system design interview.
Ask about scalability, databases, caching, load balancing, microservices, API design.
Start with high-level architecture then drill down into specifics.
Keep responses concise (under 50 words). Guide the candidate through the design process.`,
	},
	"behavioral": {
		ID:   "behavioral",
		Name: "Behavioral Interview",
		SystemPrompt: `You are an HR manager conducting a behavioral interview using the STAR method.
Ask about leadership, teamwork, conflict resolution, challenges overcome, and career goals.
Listen for specific examples and follow up with clarifying questions.
Keep responses concise (under 50 words). Be empathetic and encouraging.`,
	},
	"frontend": {
		ID:   "frontend",
		Name: "Frontend Development",
		SystemPrompt: `You are a senior frontend developer conducting a technical interview.
Ask about HTML, CSS, JavaScript, React, state management, performance optimization, accessibility.
Include practical scenario-based questions.
Keep responses concise (under 50 words). Correct misconceptions gently.`,
	},
	"backend": {
		ID:   "backend",
		Name: "Backend Development",
		SystemPrompt: `You are a senior backend developer conducting a technical interview.
Ask about APIs, databases, authentication, server architecture, security, and testing.
Include real-world problem-solving scenarios.
Keep responses concise (under 50 words). Probe deeper on interesting answers.`,
	},
	"general": {
		ID:   "general",
		Name: "General Technical",
		SystemPrompt: `You are a professional technical interviewer.
The user is a candidate. Keep your responses short (under 30 words).
Correct them if they are wrong, or ask a follow-up question.
Be encouraging but honest about areas for improvement.`,
	},
}

var companies = map[string]Company{
	"google": {
		ID:   "google",
		Name: "Google",
		Style: `You interview like a Google engineer: Focus on algorithmic thinking,
ask about time/space complexity, encourage thinking out loud, use "What if..." follow-ups.
Be friendly but rigorous. Ask about edge cases.`,
	},
	"amazon": {
		ID:   "amazon",
		Name: "Amazon",
		Style: `You interview like an Amazon engineer: Focus on Leadership Principles,
ask behavioral questions using STAR method, probe for customer obsession, ownership, and bias for action.
Ask "Tell me about a time when..." questions. Dig deep into specifics.`,
	},
	"meta": {
		ID:   "meta",
		Name: "Meta",
		Style: `You interview like a Meta engineer: Focus on coding efficiency,
system design at scale, move fast mentality. Ask about trade-offs and real-world impact.
Be direct and focus on practical problem-solving.`,
	},
	"microsoft": {
		ID:   "microsoft",
		Name: "Microsoft",
		Style: `You interview like a Microsoft engineer: Focus on problem-solving approach,
collaboration skills, growth mindset. Ask about how they'd work with teams.
Be supportive but thorough in technical assessment.`,
	},
	"startup": {
		ID:   "startup",
		Name: "Startup",
		Style: `You interview like a startup CTO: Focus on versatility,
ability to wear multiple hats, shipping quickly, and learning on the fly.
Ask about side projects and initiative. Be casual but assess deeply.`,
	},
	"default": {
		ID:   "default",
		Name: "Standard",
		Style: `You are a professional technical interviewer. Be fair, encouraging,
and thorough in your assessment.`,
	},
}

var difficulties = map[string]Difficulty{
	"easy": {
		ID:          "easy",
		Name:        "Easy",
		Description: "Entry-level questions, more hints provided",
		PromptModifier: `Ask entry-level questions suitable for junior developers or students.
Provide helpful hints when the candidate struggles. Be very encouraging.
Focus on fundamentals and basic concepts.`,
		XPMultiplier: 1.0,
	},
	"medium": {
		ID:          "medium",
		Name:        "Medium",
		Description: "Standard interview difficulty",
		PromptModifier: `Ask standard interview questions suitable for mid-level developers.
Provide occasional hints if needed. Balance challenge with encouragement.
Include some follow-up questions to probe deeper.`,
		XPMultiplier: 1.25,
	},
	"hard": {
		ID:          "hard",
		Name:        "Hard",
		Description: "Senior-level challenging questions",
		PromptModifier: `Ask challenging questions suitable for senior developers.
Expect thorough, detailed answers. Probe edge cases and trade-offs extensively.
Ask complex follow-ups and challenge assumptions. Be rigorous.`,
		XPMultiplier: 1.5,
	},
}

// Achievements is the full achievement catalog, in display order.
var Achievements = []Achievement{
	{ID: "first_interview", Name: "First Steps", Description: "Complete your first interview", XPReward: 50, Icon: "🎯"},
	{ID: "perfect_10", Name: "Perfect 10", Description: "Get a 10/10 score on a question", XPReward: 100, Icon: "⭐"},
	{ID: "streak_3", Name: "Hat Trick", Description: "Practice 3 days in a row", XPReward: 75, Icon: "🔥"},
	{ID: "streak_7", Name: "Week Warrior", Description: "Practice 7 days in a row", XPReward: 150, Icon: "💪"},
	{ID: "streak_30", Name: "Monthly Master", Description: "Practice 30 days in a row", XPReward: 500, Icon: "🏆"},
	{ID: "questions_10", Name: "Getting Started", Description: "Answer 10 questions", XPReward: 50, Icon: "📚"},
	{ID: "questions_50", Name: "Dedicated Learner", Description: "Answer 50 questions", XPReward: 150, Icon: "📖"},
	{ID: "questions_100", Name: "Century Club", Description: "Answer 100 questions", XPReward: 300, Icon: "💯"},
	{ID: "all_topics", Name: "Well Rounded", Description: "Practice all interview topics", XPReward: 200, Icon: "🌟"},
	{ID: "avg_8_plus", Name: "High Achiever", Description: "Maintain 8+ average score", XPReward: 250, Icon: "🎖️"},
	{ID: "interviews_5", Name: "Committed", Description: "Complete 5 interviews", XPReward: 100, Icon: "✅"},
	{ID: "interviews_20", Name: "Interview Pro", Description: "Complete 20 interviews", XPReward: 400, Icon: "🎓"},
}

func AchievementByID(id string) (Achievement, bool) {
	for _, a := range Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// TopicOrDefault returns the topic for id, falling back to "general".
func TopicOrDefault(id string) Topic {
	if t, ok := topics[id]; ok {
		return t
	}
	return topics[DefaultTopicID]
}

// CompanyOrDefault returns the company style for id, falling back to "default".
func CompanyOrDefault(id string) Company {
	if c, ok := companies[id]; ok {
		return c
	}
	return companies[DefaultCompanyID]
}

// DifficultyOrDefault returns the difficulty for id, falling back to "medium".
func DifficultyOrDefault(id string) Difficulty {
	if d, ok := difficulties[id]; ok {
		return d
	}
	return difficulties[DefaultDifficultyID]
}

func Topics() []Topic {
	order := []string{"dsa", "system_design", "behavioral", "frontend", "backend", "general"}
	out := make([]Topic, 0, len(order))
	for _, id := range order {
		out = append(out, topics[id])
	}
	return out
}

func Companies() []Company {
	order := []string{"google", "amazon", "meta", "microsoft", "startup", "default"}
	out := make([]Company, 0, len(order))
	for _, id := range order {
		out = append(out, companies[id])
	}
	return out
}

func Difficulties() []Difficulty {
	order := []string{"easy", "medium", "hard"}
	out := make([]Difficulty, 0, len(order))
	for _, id := range order {
		out = append(out, difficulties[id])
	}
	return out
}

// Opening builds the templated opening utterance for a topic,
// personalized with the candidate name and company display name.
func Opening(topicID, candidateName, companyName string) string {
	switch topicID {
	case "dsa":
		return fmt.Sprintf("Hello %s! I'll be your interviewer today, conducting this in the style of %s. Let's start with Data Structures & Algorithms. Can you explain what a hash table is and when you'd use one?", candidateName, companyName)
	case "system_design":
		return fmt.Sprintf("Welcome %s! I'm conducting this system design interview %s-style. Let's start: How would you design a URL shortener like bit.ly?", candidateName, companyName)
	case "behavioral":
		return fmt.Sprintf("Hi %s! I'm excited to learn more about you today. This will be a %s-style behavioral interview. Tell me about yourself and what brings you to this opportunity?", candidateName, companyName)
	case "frontend":
		return fmt.Sprintf("Hello %s! Let's dive into frontend development, %s-style. Can you explain the difference between let, const, and var in JavaScript?", candidateName, companyName)
	case "backend":
		return fmt.Sprintf("Welcome %s! Let's explore backend development with a %s interview approach. What's the difference between SQL and NoSQL databases?", candidateName, companyName)
	default:
		return fmt.Sprintf("Hello %s! Welcome to your %s-style mock interview. Tell me about a recent project you've worked on.", candidateName, companyName)
	}
}
