package admin

import (
	"fmt"
	"time"
)

var demoApplicants = []struct {
	name, province string
	status         Status
}{
	{"Thabo Mokoena", "Gauteng", StatusReview},
	{"Lerato Dlamini", "KwaZulu-Natal", StatusPending},
	{"Sipho Nkosi", "Mpumalanga", StatusApproved},
	{"Ayanda Khumalo", "Eastern Cape", StatusPending},
	{"Naledi Molefe", "Free State", StatusRejected},
	{"Kagiso Sithole", "North West", StatusReview},
	{"Zanele Mahlangu", "Limpopo", StatusApproved},
	{"Pieter van Wyk", "Western Cape", StatusPending},
	{"Nomvula Zulu", "KwaZulu-Natal", StatusPending},
	{"Tshepo Maseko", "Gauteng", StatusReview},
	{"Karabo Ndlovu", "Northern Cape", StatusApproved},
	{"Lindiwe Cele", "Eastern Cape", StatusPending},
}

// SeedDemo fills reg with sample applications submitted over the days
// before now. It returns the number of records added.
func SeedDemo(reg *Registry, now time.Time) int {
	n := 0
	for i, a := range demoApplicants {
		submitted := now.AddDate(0, 0, -(i*3 + 1))
		err := reg.Add(Record{
			ID:        fmt.Sprintf("NMTP-%d-demo%04d", submitted.UnixMilli(), i+1),
			Name:      a.name,
			Email:     fmt.Sprintf("applicant%02d@example.com", i+1),
			Province:  a.province,
			Status:    a.status,
			Submitted: submitted,
		})
		if err == nil {
			n++
		}
	}
	return n
}
