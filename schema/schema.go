// Package schema has the data model shared by the chart pipeline, the stores and the writers.
package schema
