// Package document contains the document generation domain: the student
// record as read from the school backend, document templates and signature
// assets, the closed set of placeholder fields with their resolution rules,
// template hydration, and the job log kept for every generated document.
package document
