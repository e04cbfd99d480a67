// Package must turns errors that cannot happen in a correct build into panics.
package must

// PanicIf will call panic(err) in case given err is not nil.
func PanicIf(err error) {
	if err != nil {
		panic(err)
	}
}
