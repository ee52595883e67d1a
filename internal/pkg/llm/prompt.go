package llm

import (
	"fmt"
	"strings"
)

const promptTemplate = `You are a learned Islamic scholar, knowledgeable in the Quran, Hadith and the Sunnah of the Prophet Muhammad (peace be upon him). Write a Ramadan daily reflection for a worshipper who is fasting right now.

TOPIC: "%[1]s"
RAMADAN DAY: %[2]d (out of 30)
%[3]s
Requirements:
1. Root the message in a specific Quranic verse, an authentic Hadith or the Sunnah. If none applies directly, give sincere counsel grounded in Islamic principles.
2. Speak directly to the fasting reader and connect "%[1]s" to their hunger, prayer and devotion on day %[2]d.
3. Refer to Allah by name and use Islamic terms such as Taqwa, Sabr, Shukr and Dua naturally.
4. Use flawless grammar and plain prose with no markdown, emojis, bullet points or quotation marks around the whole text.
5. Write 2 to 3 connected sentences, 150 to 250 characters in total.

Structure: open with a principle about "%[1]s", follow with a verse or Hadith that illuminates it for the fasting worshipper, and close with a personal call to action for today.

Compose ONE reflection now:`

// BuildPrompt 拼接固定的寄语提示词
func BuildPrompt(topic string, day int, hint string) string {
	hintLine := ""
	if hint = strings.TrimSpace(hint); hint != "" {
		hintLine = fmt.Sprintf("HADITH/AYAH REFERENCE HINT: %s\n", hint)
	}
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(topic), day, hintLine)
}
