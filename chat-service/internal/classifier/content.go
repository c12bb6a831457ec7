package classifier

import "github.com/weiawesome/wes-support-chat/chat-service/internal/domain"

var emotionReplies = map[string]string{
	"anger":        "It sounds like you're feeling really angry right now, and that's a valid emotion. What's making you feel most angry about this?",
	"sadness":      "I can hear a lot of sadness in what you're sharing. It's okay to feel this way, and healing takes time.",
	"anxiety":      "The uncertainty you're describing sounds overwhelming. You're not alone, and we can take this one step at a time.",
	"guilt":        "I hear a lot of self-blame in your words. Please try to be gentle with yourself; you did the best you could.",
	"hope":         "I'm glad to hear some hope in your message. That takes real strength.",
	EmotionNeutral: "Thank you for sharing with me. I'm here to listen. How are you feeling about what you're going through?",
}

var crisisReplies = map[string]string{
	"suicidal":          "I'm very concerned about you. Please reach out to emergency services or a crisis line right now. You are not alone, and people care about you.",
	"self-harm":         "I hear how much pain you're in. There are people who want to help you through this, and I'm connecting you with them.",
	"severe-depression": "It sounds like you're carrying something very heavy. You don't have to carry it alone; let's get you some extra support.",
}

var roomSuggestions = map[string][]string{
	"anger":        {"general-support", "legal-consultation"},
	"sadness":      {"emotional-support", "general-support"},
	"anxiety":      {"emotional-support", "general-support"},
	"guilt":        {"emotional-support"},
	"hope":         {"general-support"},
	EmotionNeutral: {"general-support"},
}

var followUps = map[string][]string{
	"anger": {
		"What part of the situation makes you feel most angry?",
		"Have you been able to talk to anyone about these feelings?",
	},
	"sadness": {
		"What would help you feel supported right now?",
		"What small step could you take toward feeling a little better?",
	},
	"anxiety": {
		"What specifically worries you the most?",
		"Who in your support network could you reach out to?",
	},
	"guilt": {
		"What specifically do you feel guilty about?",
		"What would self-compassion look like for you right now?",
	},
	EmotionNeutral: {
		"How are you taking care of yourself right now?",
	},
}

var emotionResources = map[string][]domain.Resource{
	"anger": {
		{Name: "Managing Anger", Contact: "https://www.helpguide.org/articles/relationships-communication/anger-management.htm"},
	},
	"sadness": {
		{Name: "Coping with Grief and Loss", Contact: "https://www.helpguide.org/articles/grief/coping-with-grief-and-loss.htm"},
	},
	"anxiety": {
		{Name: "Anxiety Relief Techniques", Contact: "https://www.calm.com/blog/anxiety-relief"},
	},
}

var hotlineResources = []domain.Resource{
	{Name: "988 Suicide & Crisis Lifeline", Contact: "988", Description: "Call or text, 24/7"},
	{Name: "Crisis Text Line", Contact: "Text HOME to 741741", Description: "24/7"},
}
