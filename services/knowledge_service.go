package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"chatbot/config"
	"chatbot/models"
)

const collegeContext = `SITCOE (Sinhgad Institute of Technology and College of Engineering) is a premier engineering college located in Pune, Maharashtra, India.
Established in 2004, it offers undergraduate programs in Computer, Mechanical, Electrical, Civil, and AI & Data Science Engineering.
The college is affiliated with Savitribai Phule Pune University and approved by AICTE.
SITCOE is known for its excellent academic standards, industry collaborations, and placement records.`

// DefaultKnowledge returns the built-in SITCOE knowledge base.
func DefaultKnowledge() models.KnowledgeBase {
	return models.KnowledgeBase{
		"admissions": {
			"process":      "SITCOE offers admission through MHT-CET and JEE Main scores. The admission process includes online application, document verification, and counseling rounds.",
			"requirements": "Minimum 50% in 12th standard (PCM) for general category, 45% for reserved categories. Valid MHT-CET or JEE Main score required.",
			"documents":    "10th and 12th mark sheets, caste certificate (if applicable), income certificate, domicile certificate, and photo ID proof.",
			"deadlines":    "Admissions typically open in June-July. Check the official website for current year deadlines.",
			"contact":      "Admission Office: +91-XXX-XXXXXXX, Email: admissions@sitcoe.ac.in",
		},
		"courses": {
			"computer":   "Computer Engineering (120 seats) - Covers programming, algorithms, databases, and software development.",
			"mechanical": "Mechanical Engineering (120 seats) - Focuses on design, manufacturing, and thermal sciences.",
			"electrical": "Electrical Engineering (60 seats) - Covers power systems, electronics, and control systems.",
			"civil":      "Civil Engineering (60 seats) - Focuses on structural design, construction, and infrastructure.",
			"ai_ds":      "AI & Data Science (60 seats) - New program covering artificial intelligence, machine learning, and data analytics.",
		},
		"fees": {
			"tuition":      "Tuition fees: ₹1,25,000 per year for general category, ₹62,500 for reserved categories.",
			"other_fees":   "Other fees include development fees, library fees, and examination fees (approximately ₹15,000 per year).",
			"scholarships": "Merit-based scholarships available for top performers. EBC and other government scholarships applicable.",
			"payment":      "Fees can be paid online through the college portal or in installments.",
		},
		"placements": {
			"companies":       "Top recruiters include TCS, Infosys, Wipro, Cognizant, Tech Mahindra, and many more.",
			"average_package": "Average package: ₹4.5 LPA, Highest package: ₹12 LPA",
			"placement_rate":  "Placement rate: 85%+ for eligible students",
			"internships":     "Summer and winter internships available with stipends ranging from ₹8,000 to ₹25,000 per month.",
		},
		"faculty": {
			"qualifications": "Faculty members hold PhD and M.Tech degrees from reputed institutions like IITs, NITs, and other premier universities.",
			"experience":     "Average teaching experience: 8+ years",
			"research":       "Active research in areas like AI/ML, renewable energy, IoT, and sustainable development.",
			"student_ratio":  "Student-faculty ratio: 15:1",
		},
		"events": {
			"technical": "TechFest, Project Exhibition, Coding Competitions, Hackathons",
			"cultural":  "Cultural Fest, Sports Meet, Annual Function, Alumni Meet",
			"workshops": "Regular workshops on emerging technologies, soft skills, and industry trends.",
			"seminars":  "Guest lectures from industry experts and academicians.",
		},
		"facilities": {
			"labs":    "Well-equipped computer labs, mechanical workshop, electrical labs, and research facilities.",
			"library": "Central library with 50,000+ books, e-resources, and digital access.",
			"sports":  "Indoor and outdoor sports facilities, gymnasium, and playground.",
			"hostel":  "Separate hostels for boys and girls with modern amenities.",
		},
	}
}

// KnowledgeService owns the knowledge base and the system prompt derived
// from it.
type KnowledgeService struct {
	kb     models.KnowledgeBase
	prompt string
}

func NewKnowledgeService(kb models.KnowledgeBase) (*KnowledgeService, error) {
	prompt, err := buildSystemPrompt(kb)
	if err != nil {
		return nil, err
	}
	return &KnowledgeService{kb: kb, prompt: prompt}, nil
}

func (ks *KnowledgeService) KnowledgeBase() models.KnowledgeBase { return ks.kb }

func (ks *KnowledgeService) SystemPrompt() string { return ks.prompt }

func buildSystemPrompt(kb models.KnowledgeBase) (string, error) {
	knowledge, err := json.MarshalIndent(kb, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode knowledge base: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are an AI chatbot assistant for SITCOE (Sinhgad Institute of Technology and College of Engineering) college website.\n\n")
	b.WriteString(collegeContext)
	b.WriteString("\n\nYou have access to the following college information:\n")
	b.Write(knowledge)
	b.WriteString("\n\nYour role is to:\n")
	b.WriteString("1. Answer questions about SITCOE college admissions, courses, fees, placements, faculty, events, and facilities\n")
	b.WriteString("2. Provide accurate and helpful information based on the knowledge base\n")
	b.WriteString("3. Guide users to relevant resources and contact information\n")
	b.WriteString("4. Be polite, professional, and informative\n")
	b.WriteString("5. If you don't have specific information, suggest contacting the college directly\n\n")
	b.WriteString("Always mention that you're the SITCOE college chatbot and provide relevant contact information when appropriate.\n")
	return b.String(), nil
}

// categoryKeywords maps words a user is likely to type onto knowledge
// base categories.
var categoryKeywords = map[string][]string{
	"admissions": {"admission", "admit", "apply", "application", "eligib", "cet", "jee", "document", "deadline"},
	"courses":    {"course", "program", "branch", "seat", "computer", "mechanical", "electrical", "civil", "data science"},
	"fees":       {"fee", "tuition", "cost", "scholarship", "payment", "installment"},
	"placements": {"placement", "package", "recruit", "compan", "internship", "job", "salary"},
	"faculty":    {"faculty", "teacher", "professor", "research", "staff"},
	"events":     {"event", "fest", "hackathon", "workshop", "seminar", "cultural"},
	"facilities": {"facilit", "labs", "laborator", "library", "hostel", "sport", "gym", "campus"},
}

// OfflineCompleter answers from the knowledge base by keyword match. It
// needs no network and is meant for local development and demos.
type OfflineCompleter struct {
	kb models.KnowledgeBase
}

func NewOfflineCompleter(kb models.KnowledgeBase) *OfflineCompleter {
	return &OfflineCompleter{kb: kb}
}

func (o *OfflineCompleter) Name() string { return config.ProviderOffline }

func (o *OfflineCompleter) Complete(_ context.Context, _ string, userMessage string) (string, error) {
	query := strings.ToLower(userMessage)

	var matched []string
	for category, words := range categoryKeywords {
		if _, ok := o.kb[category]; !ok {
			continue
		}
		for _, w := range words {
			if strings.Contains(query, w) {
				matched = append(matched, category)
				break
			}
		}
	}
	sort.Strings(matched)

	var b strings.Builder
	b.WriteString("I'm the SITCOE college chatbot.")
	if len(matched) == 0 {
		b.WriteString(" I don't have specific information on that. ")
		b.WriteString("Please contact the college directly: ")
		b.WriteString(o.kb["admissions"]["contact"])
		return b.String(), nil
	}

	for _, category := range matched {
		topics := o.kb[category]
		keys := make([]string, 0, len(topics))
		for k := range topics {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintf(&b, "\n\n%s:", strings.ToUpper(category[:1])+category[1:])
		for _, k := range keys {
			fmt.Fprintf(&b, "\n- %s", topics[k])
		}
	}
	return b.String(), nil
}
