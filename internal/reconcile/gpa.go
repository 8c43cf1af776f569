package reconcile

import "github.com/noah-isme/bbsmart-api/internal/models"

// ComputeGPA returns the credit-weighted mean over graded courses. Symbol
// grades and non-positive numbers are left out of both sums; a subject
// missing from the catalog weighs zero. With no credit at all the GPA is 0.
func ComputeGPA(courses []models.EnrolledCourse, catalog models.SubjectCatalog) float64 {
	var points, credits float64
	for _, c := range courses {
		if !c.Grade.Graded() {
			continue
		}
		grade, _ := c.Grade.Number()
		credit := catalog.Credit(c.SubjectID)
		points += grade * credit
		credits += credit
	}
	if credits <= 0 {
		return 0
	}
	return points / credits
}
