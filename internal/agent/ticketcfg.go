package agent

import "strings"

// Ticket taxonomy: category -> allowed subcategories.
var TicketCategories = map[string][]string{
	"Academic Support": {
		"Assignment Issues",
		"Internal Marks / Grade Queries",
		"Subject / Elective Change",
		"Attendance Clarification",
		"Syllabus / Curriculum Clarification",
		"Faculty / Teaching Issues",
		"Lab / Practical Issues",
		"Timetable Issues",
	},
	"Examinations": {
		"Hall Ticket Issues",
		"Exam Timetable Queries",
		"Re-evaluation / Recounting",
		"Supplementary Exams",
		"Result Discrepancy",
		"Exam Registration Issues",
	},
	"Fees & Finance": {
		"Fee Payment Issues",
		"Fee Receipt Download",
		"Scholarship Issues",
		"Refund Requests",
		"Late Fee Clarification",
	},
	"IT Support": {
		"Portal Login Issues",
		"College Email Issues",
		"Wi-Fi / Internet",
		"LMS / Online Classes",
		"Password Reset",
	},
	"Hostel & Transport": {
		"Room Allocation / Change",
		"Maintenance Issues",
		"Food / Mess Issues",
		"Bus Timings",
		"Route Change",
	},
	"Certificates": {
		"Bonafide Certificate",
		"Transfer Certificate",
		"Character Certificate",
		"Degree / Provisional Certificate",
		"Internship / NOC Letter",
	},
	"Health & Counseling": {
		"Medical Emergency",
		"Counseling Request",
		"Mental Health Support",
		"Medical Leave",
	},
	"Library": {
		"Book Issue / Return",
		"Fine Clarification",
		"Digital Resources",
	},
	"Placements & Internships": {
		"Placement Registration",
		"Eligibility Queries",
		"Internship Approval",
	},
	"Other": {
		"General Query",
		"Complaint",
		"Suggestion",
	},
}

// DepartmentForCategory assigns the handling department per category.
var DepartmentForCategory = map[string]string{
	"Academic Support":         "Academic Department",
	"Examinations":             "Examination Cell",
	"Fees & Finance":           "Finance Office",
	"IT Support":               "IT Department",
	"Hostel & Transport":       "Hostel & Transport Office",
	"Certificates":             "Administration Office",
	"Health & Counseling":      "Health & Counseling Center",
	"Library":                  "Library",
	"Placements & Internships": "Training & Placement Office",
	"Other":                    "General Administration",
}

// SLAHours maps priority to resolution target in hours.
var SLAHours = map[string]int{
	"Low":    72,
	"Medium": 48,
	"High":   24,
	"Urgent": 4,
}

var PriorityLevels = []string{"Low", "Medium", "High", "Urgent"}

var EmailTones = []string{"formal", "semi-formal", "friendly", "urgent"}

var EmailLengths = []string{"short", "medium", "detailed"}

const (
	// MinTicketDescriptionLen is the minimum accepted description length.
	MinTicketDescriptionLen = 20
	// MinEmailPurposeWords is the minimum word count for an email purpose.
	MinEmailPurposeWords = 5
)

// NormalizeCategory matches free text against the taxonomy, case-insensitively
// and accepting a few partial forms ("fees" -> "Fees & Finance"). Returns ""
// if nothing matches.
func NormalizeCategory(input string) string {
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" {
		return ""
	}
	for cat := range TicketCategories {
		if strings.ToLower(cat) == in {
			return cat
		}
	}
	for cat := range TicketCategories {
		lc := strings.ToLower(cat)
		if strings.Contains(lc, in) || strings.Contains(in, lc) {
			return cat
		}
	}
	// First-word match covers "fees", "library", "certificates" style answers.
	for cat := range TicketCategories {
		first := strings.ToLower(strings.Fields(cat)[0])
		if strings.Contains(in, first) {
			return cat
		}
	}
	return ""
}

// NormalizeSubCategory matches input against the subcategories of category.
func NormalizeSubCategory(category, input string) string {
	subs, ok := TicketCategories[category]
	if !ok {
		return ""
	}
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" {
		return ""
	}
	for _, sub := range subs {
		if strings.ToLower(sub) == in {
			return sub
		}
	}
	for _, sub := range subs {
		ls := strings.ToLower(sub)
		if strings.Contains(ls, in) || strings.Contains(in, ls) {
			return sub
		}
	}
	return ""
}

// NormalizePriority maps input to one of PriorityLevels, or "".
func NormalizePriority(input string) string {
	in := strings.ToLower(strings.TrimSpace(input))
	for _, p := range PriorityLevels {
		if strings.ToLower(p) == in {
			return p
		}
	}
	switch in {
	case "asap", "immediately", "critical", "emergency":
		return "Urgent"
	case "normal", "moderate":
		return "Medium"
	case "not urgent", "whenever", "minor":
		return "Low"
	}
	return ""
}

// CategoryNames returns the taxonomy's category names, stable order.
func CategoryNames() []string {
	return []string{
		"Academic Support",
		"Examinations",
		"Fees & Finance",
		"IT Support",
		"Hostel & Transport",
		"Certificates",
		"Health & Counseling",
		"Library",
		"Placements & Internships",
		"Other",
	}
}
