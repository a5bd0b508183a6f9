// Package keyword tags free text with emotion and workplace-situation labels
// using fixed substring dictionaries.
package keyword

import "strings"

// Entry maps one label to the substrings that trigger it
type Entry struct {
	Label    string
	Keywords []string
}

// Dictionary is an ordered list of entries. Match order follows entry order.
type Dictionary []Entry

// Emotions recognises the negative emotion states used for topic matching
var Emotions = Dictionary{
	{"불안", []string{"불안", "걱정", "두려움", "긴장", "조마조마"}},
	{"분노", []string{"화", "분노", "짜증", "열받", "화나", "빡치", "짜증"}},
	{"슬픔", []string{"슬픔", "우울", "속상", "서운", "마음이 아프", "마음 아프"}},
	{"무력감", []string{"무력감", "자신감", "자존감", "할 수 없", "못하겠"}},
	{"스트레스", []string{"스트레스", "부담", "압박", "힘들", "버겁"}},
	{"소진", []string{"소진", "지침", "피곤", "에너지", "번아웃", "지쳤"}},
	{"위화감", []string{"위화감", "어색", "불편", "껄끄럽"}},
	{"불만", []string{"불만", "불평", "싫", "짜증", "못마땅"}},
	{"혼란", []string{"혼란", "헷갈", "모르겠", "이해가 안", "복잡"}},
}

// Situations recognises workplace situations
var Situations = Dictionary{
	{"책임전가", []string{"책임", "떠넘기", "전가", "핑계", "탓"}},
	{"모호한지시", []string{"모호", "불분명", "애매", "불확실", "명확하지 않"}},
	{"업무과부하", []string{"과부하", "업무량", "일이 많", "과중", "야근", "밀려"}},
	{"인간관계", []string{"인간관계", "동료", "상사", "팀장", "팀원", "관계", "소통"}},
	{"평가", []string{"평가", "성과", "인정", "피드백", "리뷰", "승진"}},
	{"성장", []string{"성장", "발전", "배움", "역량", "스킬", "능력"}},
	{"이직", []string{"이직", "퇴사", "퇴직", "이동", "옮기", "새 직장", "구직"}},
	{"조직문화", []string{"조직문화", "회사 분위기", "문화", "관행", "분위기"}},
}

// Match returns every label with at least one keyword contained in text.
// Matching is a case-sensitive substring test without normalisation.
func (d Dictionary) Match(text string) []string {
	var labels []string
	for _, e := range d {
		for _, kw := range e.Keywords {
			if strings.Contains(text, kw) {
				labels = append(labels, e.Label)
				break
			}
		}
	}
	return labels
}

// Labels lists the dictionary labels in order
func (d Dictionary) Labels() []string {
	out := make([]string, len(d))
	for i, e := range d {
		out[i] = e.Label
	}
	return out
}

// Result holds the labels found in one or more texts
type Result struct {
	Emotions   []string `json:"emotions"`
	Situations []string `json:"situations"`
}

// Extract tags a single text
func Extract(text string) Result {
	return Result{
		Emotions:   Emotions.Match(text),
		Situations: Situations.Match(text),
	}
}

// ExtractAll unions the labels of every text, keeping first-seen order
func ExtractAll(texts ...string) Result {
	var res Result
	for _, text := range texts {
		r := Extract(text)
		res.Emotions = Union(res.Emotions, r.Emotions)
		res.Situations = Union(res.Situations, r.Situations)
	}
	return res
}

// Union appends the values of b missing from a, then de-duplicates
func Union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
