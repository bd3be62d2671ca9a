// Package integrationtests boots complete package trees through the App and
// checks the observable outcome: activation order, errors and logs.
package integrationtests
