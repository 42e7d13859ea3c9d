package snapshotjson

import "fmt"

// Pretty renders USD amounts the way the dashboard shows them:
// $1.23T / $4.56B / $7.89M / $1.00K, plain "$999" below a thousand, N/A for nil.
func Pretty(v *float64) string {
	if v == nil {
		return "N/A"
	}
	x := *v
	switch {
	case x >= 1e12:
		return fmt.Sprintf("$%.2fT", x/1e12)
	case x >= 1e9:
		return fmt.Sprintf("$%.2fB", x/1e9)
	case x >= 1e6:
		return fmt.Sprintf("$%.2fM", x/1e6)
	case x >= 1e3:
		return fmt.Sprintf("$%.2fK", x/1e3)
	}
	return fmt.Sprintf("$%.0f", x)
}
