// Package returns computes trailing annualized returns (CAGR) of every series
// in an observation table over a list of holding periods.
//
// Each row is paired with the observation on the same calendar date N years
// later, or the latest observation before it. The report has a From column
// and, per period, a "To (NYr)" column plus one "<series> (NYr)" column per
// series. Series headers carry no leading space: readers of older reports
// that looked up " <series> (NYr)" must trim the name first. The first row of
// the report is a header row labelled "Annualized Return".
package returns
