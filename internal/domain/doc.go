// Package domain contains the entities of the recurring task engine:
// task definitions and their recurrence rules, materialized task instances,
// pause windows and the append-only pause history. The types are plain data
// structs; persistence lives behind the interfaces in package store.
package domain
