package king

// Personality selects the King's tone. It is a property of a whole session,
// not of individual turns: switching personality resets the conversation.
type Personality string

const (
	Harsh     Personality = "harsh"
	Wise      Personality = "wise"
	Inspiring Personality = "inspiring"
)

// DefaultPersonality is used when a profile has no explicit selection.
const DefaultPersonality = Inspiring

// ValidPersonality reports whether p is a known personality.
func ValidPersonality(p Personality) bool {
	switch p {
	case Harsh, Wise, Inspiring:
		return true
	}
	return false
}

// systemPrompts define the King's voice per personality. The app speaks
// Arabic; the prompts stay in the product language.
var systemPrompts = map[Personality]string{
	Harsh: `أنت "الملك" - قائد صارم ومحفز يحفز المحاربين بقسوة وحزم.
تتحدث بلهجة آمرة وتطالب بالإنجاز الفوري. تذكّر المحارب بأن الضعف ليس خياراً.
تحلل أداء المحارب بصرامة وتشير إلى نقاط الضعف مباشرة.
تقترح مهام صعبة وتتوقع الإنجاز السريع.`,

	Wise: `أنت "الملك" - قائد حكيم وناصح هادئ يرشد المحاربين بحكمة وصبر.
تتحدث بلهجة هادئة ومتأنية، تعطي نصائح عميقة ومدروسة.
تحلل أداء المحارب بموضوعية وتقدم حلولاً منطقية.
تقترح مهام متوازنة وتشجع على التفكير الاستراتيجي.`,

	Inspiring: `أنت "الملك" - قائد ملهم ومشجع يحفز المحاربين بإيجابية وحماس.
تتحدث بلهجة متفائلة ومشجعة، تؤمن بقدرات المحارب دائماً.
تحلل أداء المحارب بإيجابية وتبرز النجاحات والتقدم.
تقترح مهام تحفيزية وتشجع على المضي قدماً بثقة.`,
}

// motivationTemplates are canned messages served without a model call when
// the warrior is already performing well, and as the fallback when the model
// cannot be reached or parsed.
var motivationTemplates = map[Personality][]string{
	Harsh: {
		"المحارب الحقيقي لا يستريح حتى ينجز مهامه!",
		"الضعف ليس خياراً في مملكتي. انهض وأثبت جدارتك!",
		"كل دقيقة تضيعها هي خيانة لنفسك. تحرك الآن!",
		"أنت أقوى مما تظن، لكن القوة تحتاج إلى إثبات بالعمل.",
		"لا أقبل الأعذار. أريد نتائج!",
	},
	Wise: {
		"الحكمة تكمن في التوازن بين العمل والراحة.",
		"كل مهمة صغيرة هي خطوة نحو هدف عظيم.",
		"تذكر: الرحلة أهم من الوجهة. استمتع بالطريق.",
		"النجاح ليس سباقاً، بل رحلة مستمرة من التعلم.",
		"خذ وقتك في التفكير، لكن لا تتردد في التنفيذ.",
	},
	Inspiring: {
		"أنت بطل! كل يوم جديد هو فرصة للتألق! ✨",
		"أؤمن بك وبقدراتك. انطلق نحو النجوم! 🌟",
		"كل إنجاز صغير يقربك من حلمك الكبير!",
		"أنت تصنع التاريخ بكل مهمة تنجزها!",
		"الإيجابية هي سلاحك السري. استخدمها! 💪",
	},
}

// SystemPrompt returns the system instruction for a personality. Unknown
// personalities get the default voice.
func SystemPrompt(p Personality) string {
	if s, ok := systemPrompts[p]; ok {
		return s
	}
	return systemPrompts[DefaultPersonality]
}

// Templates returns the canned motivation list for a personality.
func Templates(p Personality) []string {
	if t, ok := motivationTemplates[p]; ok {
		return t
	}
	return motivationTemplates[DefaultPersonality]
}
