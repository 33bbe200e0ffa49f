// Package model defines the result types shared by every cakes search strategy.
//
// A search returns []Hit ordered ascending by (Distance, Index). Ordering by
// index among equal distances keeps results deterministic for identical input.
package model
