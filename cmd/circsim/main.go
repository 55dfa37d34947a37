// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command circsim runs circuit files and manages the project store.
//
package main

func main() {
	Execute()
}
