package reminder

import "strings"

// 用药记录的模糊匹配。
//
// 提醒内容与药名之间做大小写不敏感的双向包含判断：药名包含片段，或片段包含药名。
// 误判：过短的药名（如 "D"）会命中几乎所有提醒。
// 漏判：拼写差异、通用名与商品名不同时无法命中。
// 多条命中时取第一条（按 ID 升序），可能标记错药，调用方应记录命中数量以便照护端排查。

// MedicationFragment 用于匹配的片段，优先使用提醒内容
func MedicationFragment(d Definition) string {
	if msg := strings.TrimSpace(d.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(d.Title)
}

func MatchesMedicationName(name, fragment string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	fragment = strings.ToLower(strings.TrimSpace(fragment))
	if name == "" || fragment == "" {
		return false
	}
	return strings.Contains(name, fragment) || strings.Contains(fragment, name)
}

// PickMedication 返回第一条未服用且命中的记录以及命中总数，meds 需按 ID 升序
func PickMedication(meds []Medication, fragment string) (*Medication, int) {
	var (
		first   *Medication
		matches int
	)
	for i := range meds {
		if meds[i].Taken || !MatchesMedicationName(meds[i].Name, fragment) {
			continue
		}
		matches++
		if first == nil {
			m := meds[i]
			first = &m
		}
	}
	return first, matches
}
