package catalog

import "bondrizz-funnel/internal/domain"

// BondRizzID is the id of the built-in catalog.
const BondRizzID = "bond-rizz"

var agreeScale = domain.Scale{Min: 1, Max: 5, MinLabel: "Completely Disagree", MaxLabel: "Completely Agree"}

// BondRizz returns the built-in 18-question catalog with its three traps.
// Each call returns a fresh copy.
func BondRizz() domain.Catalog {
	return domain.Catalog{
		ID: BondRizzID,
		Questions: []domain.Question{
			card("q1", 1, "What's your biggest struggle with dating apps?",
				domain.Option{Text: "Matches seem boring", Subtext: "Don't lead anywhere", Image: img("photo-1581403341630-a6e0b9d2d257"), Value: "Matches seem boring / don't lead anywhere"},
				domain.Option{Text: "I overthink", Subtext: "Every message", Image: img("photo-1507003211169-0a1dd7228f2d"), Value: "I overthink every message"},
				domain.Option{Text: "Rarely get replies", Subtext: "Low response rate", Image: img("photo-1519085360753-af0119f7cbe7"), Value: "I rarely get replies"},
				domain.Option{Text: "Can't convert", Subtext: "To actual dates", Image: img("photo-1534528741775-53994a69daeb"), Value: "I get matches but can't convert to dates"},
			),
			card("q2", 2, "Which platform do you use most?",
				domain.Option{Text: "Tinder", Image: img("photo-1516589178581-6cd7833ae3b2"), Value: "Tinder"},
				domain.Option{Text: "Bumble", Image: img("photo-1522202176988-66273c2fd55f"), Value: "Bumble"},
				domain.Option{Text: "Hinge", Image: img("photo-1520333789090-1afc82db536a"), Value: "Hinge"},
				domain.Option{Text: "Instagram DMs", Image: img("photo-1611162617474-5b21e879e113"), Value: "Instagram DMs"},
			),
			card("q3", 3, "How often do you message matches?",
				domain.Option{Text: "Daily", Subtext: "Very active", Image: img("photo-1556742049-0cfed4f6a45d"), Value: "Daily"},
				domain.Option{Text: "Few times a week", Subtext: "Moderately active", Image: img("photo-1551836022-d5d88e9218df"), Value: "Few times a week"},
				domain.Option{Text: "Rarely", Subtext: "Not very active", Image: img("photo-1541692641319-981cc79ee10a"), Value: "Rarely"},
				domain.Option{Text: "Wait for them", Subtext: "To message first", Image: img("photo-1506794778202-cad84cf45f1d"), Value: "I wait for them to message first"},
			),
			card("q4", 4, "What are you looking for?",
				domain.Option{Text: "Committed relationship", Image: img("photo-1516589178581-6cd7833ae3b2"), Value: "Serious relationship"},
				domain.Option{Text: "Casual dating and fun", Image: img("photo-1522202176988-66273c2fd55f"), Value: "Casual dating"},
				domain.Option{Text: "Just hooking up", Image: img("photo-1541534741688-6078c6bfb5c5"), Value: "Just hooking up"},
				domain.Option{Text: "Still figuring it out", Image: img("photo-1529626455594-4ff0802cfb7e"), Value: "Not sure yet"},
			),
			simple("q5", 5, `Do you feel like you're "talking to a robot"?`, "Yes, all the time", "Sometimes", "Rarely", "Never"),
			simple("q6", 6, "What's your current messaging strategy?", "Copy-paste openers", "Personalized messages", "Wait for them to start", "Wing it randomly"),
			simple("q7", 7, "How would friends describe your personality?", "Shy / Reserved", "Confident / Outgoing", "Funny / Sarcastic", "Mysterious / Quiet"),
			simple("q8", 8, "Your age range?", "18–24", "25–30", "31–35", "36+"),
			likert("q9", 9, `"I'm confident in my texting skills"`),
			likert("q10", 10, `"I know how to flirt over text"`),
			likert("q11", 11, `"I can tell when someone's interested in me"`),
			simple("q12", 12, "How do you handle rejection?", "Take it personally", "Learn from it", "Don't care much", "Avoid putting myself out there"),
			simple("q13", 13, "Average time to reply to a match?", "Within 5 minutes", "Within 1 hour", "Few hours", "Next day+"),
			simple("q14", 14, "How many dating apps do you use?", "1", "2–3", "4–5", "6+"),
			simple("q15", 15, "Preferred communication style?", "Direct and clear", "Playful and teasing", "Deep conversations", "Short and casual"),
			simple("q16", 16, "Your location?", "India", "USA", "UK", "Europe", "Other"),
			simple("q17", 17, "Where do you want to be in 3 months?", "In a relationship", "Dating regularly", "More confident overall", "Better at conversations"),
			simple("q18", 18, "Have you paid for dating coaching before?", "Yes, multiple times", "Yes, once", "No but considered it", "No, never"),
		},
		Interstitials: []domain.Interstitial{
			{
				ID:            "trap1",
				AfterQuestion: 8,
				Kind:          domain.InterstitialTestimonial,
				Theme:         "blue",
				Content: domain.InterstitialContent{
					Quote:  "I went from 2 matches a month to 15+ dates in 60 days using these exact strategies",
					Author: "Rahul, 26",
					Avatar: "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=150&h=150&fit=crop",
				},
			},
			{
				ID:            "trap2",
				AfterQuestion: 13,
				Kind:          domain.InterstitialWarning,
				Theme:         "red",
				Content: domain.InterstitialContent{
					Stat:    "78% of men make THIS mistake in their first message",
					Subtext: "We'll reveal your exact mistakes in your results",
				},
			},
			{
				ID:            "trap3",
				AfterQuestion: 17,
				Kind:          domain.InterstitialSocialProof,
				Theme:         "gold",
				Content: domain.InterstitialContent{
					Counter: 1247,
					Text:    "people took this quiz in the last 24 hours",
					Subtext: "Join them in discovering your Rizz Score",
				},
			},
		},
	}
}

func card(id string, number int, prompt string, options ...domain.Option) domain.Question {
	return domain.Question{ID: id, Number: number, Prompt: prompt, Kind: domain.KindCard, Options: options}
}

func simple(id string, number int, prompt string, values ...string) domain.Question {
	options := make([]domain.Option, 0, len(values))
	for _, v := range values {
		options = append(options, domain.Option{Text: v, Value: v})
	}
	return domain.Question{ID: id, Number: number, Prompt: prompt, Kind: domain.KindSimple, Options: options}
}

func likert(id string, number int, prompt string) domain.Question {
	scale := agreeScale
	return domain.Question{ID: id, Number: number, Prompt: prompt, Kind: domain.KindLikert, Scale: &scale}
}

func img(photo string) string {
	return "https://images.unsplash.com/" + photo + "?w=400&h=300&fit=crop"
}
