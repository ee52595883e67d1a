package service

import (
	"time"

	"github.com/qs3c/ramadan_bot_server/internal/model/dto"
)

type verse struct {
	text      string
	reference string
	theme     string
}

var dailyVerses = []verse{
	{"Indeed, with hardship [will be] ease. Indeed, with hardship [will be] ease.", "Quran 94:5-6", "Hope & Ease"},
	{"And We have certainly made the Quran easy for remembrance, so is there any who will remember?", "Quran 54:17", "Quranic Guidance"},
	{"And your Lord says, 'Call upon Me; I will respond to you.'", "Quran 40:60", "Prayer & Response"},
	{"The most beloved of deeds to Allah are the most consistent, even if they are small.", "Sahih Bukhari", "Consistency"},
	{"Whoever does an atom's weight of good will see it, and whoever does an atom's weight of evil will see it.", "Quran 99:7-8", "Accountability"},
	{"And [mention, O Muhammad], when Abraham was tried by his Lord with commands and he fulfilled them.", "Quran 2:124", "Patience & Obedience"},
	{"There is no deity except You; exalted are You. Indeed, I have been of the wrongdoers.", "Quran 21:87", "Repentance"},
	{"So remember Me; I will remember you. And be grateful to Me and do not deny Me.", "Quran 2:152", "Gratitude"},
	{"And in yourself. Then will you not see?", "Quran 51:21", "Self-Reflection"},
	{"It is not required of you to walk on water, but it is required of you to be truthful.", "Sahih Bukhari", "Truthfulness"},
}

// VerseService 每日经文，同一天内固定不变
type VerseService struct {
	loc *time.Location
	now func() time.Time
}

func NewVerseService(loc *time.Location) *VerseService {
	if loc == nil {
		loc = time.Local
	}
	return &VerseService{loc: loc, now: time.Now}
}

// Today 返回今天的经文
func (s *VerseService) Today() *dto.VerseInfo {
	return s.For(s.now())
}

// For 返回 t 所在日期的经文，按一年中的第几天轮换
func (s *VerseService) For(t time.Time) *dto.VerseInfo {
	local := t.In(s.loc)
	v := dailyVerses[local.YearDay()%len(dailyVerses)]
	return &dto.VerseInfo{
		Text:      v.text,
		Reference: v.reference,
		Theme:     v.theme,
		Date:      local.Format("2006-01-02"),
	}
}
