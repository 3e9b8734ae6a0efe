/*
Package store provides the frozen, seeded, in-process domain records the mock
tools read from. There are three disjoint namespaces: shipping (customers,
orders, shipments, carriers, tracking scans, warehouses, inventory and
carrier incidents), research (topics, expert profiles, case studies) and
finance (companies, prices, sectors).

Stores are built once and never mutated. Lookups return a value and a found
flag; callers turn a miss into a not_found tool outcome.
*/
package store
