/*
Package oracle holds the single table of research base facts and the
closed-form formulas that derive every expected number in the harness:
compound growth, net present value, Pearson correlation, weighted averages,
rankings, expert forecasts and case-study returns.

The oracle is pure. It never reads from files or caches, and identical inputs
produce identical outputs.
*/
package oracle
