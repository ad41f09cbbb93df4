package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fanlychie/excelutils/pkg/excelutils/paging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Customer is the record exported and imported by the command-line tool.
// The db tags match the columns selected by EXPORT_QUERY.
type Customer struct {
	ID      uuid.UUID      `excel:"index=0,name=Customer ID" db:"id"`
	Name    string         `excel:"index=1,name=Name" db:"name"`
	Mobile  string         `excel:"index=2,name=Mobile" db:"mobile"`
	Age     int            `excel:"index=3,name=Age,align=right" db:"age"`
	VIP     bool           `excel:"index=4,name=VIP,align=center" db:"vip"`
	Joined  time.Time      `excel:"index=5,name=Joined,format=yyyy-mm-dd" db:"joined"`
	Balance pgtype.Numeric `excel:"index=6,name=Balance,format=#,##0.00,align=right" db:"balance"`
}

var sampleEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// sampleCustomer returns the n-th (1-based) generated customer.
func sampleCustomer(n int) Customer {
	var balance pgtype.Numeric
	_ = balance.Scan(fmt.Sprintf("%d.%02d", n*37%10000, n%100))

	return Customer{
		ID:      uuid.NewSHA1(uuid.NameSpaceOID, []byte(strconv.Itoa(n))),
		Name:    fmt.Sprintf("Customer %04d", n),
		Mobile:  fmt.Sprintf("138%08d", n),
		Age:     18 + n%60,
		VIP:     n%7 == 0,
		Joined:  sampleEpoch.AddDate(0, 0, n),
		Balance: balance,
	}
}

// sampleSource pages through total generated customers.
func sampleSource(total int) paging.PageSource[Customer] {
	return paging.PageFunc[Customer](func(ctx context.Context, _, offset, size int) ([]Customer, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if offset >= total {
			return nil, nil
		}

		n := min(size, total-offset)
		page := make([]Customer, n)
		for i := range page {
			page[i] = sampleCustomer(offset + i + 1)
		}
		return page, nil
	})
}
