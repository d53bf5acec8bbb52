package constants

// facegate response codes
// these consist of 4 digit numbers
//
// the 1st 3 identify the scenario
// 4th indicates if the response requires user interaction through a dialog box. 0 means it does not require. 1 means it requires.

var FACE_ENROLLMENT_REQUIRED uint = 4110   // take the user to the camera to enroll their face
var FACE_VERIFICATION_REQUIRED uint = 4120 // take the user to the camera to verify their face
var FACE_ATTEMPT_WARNING uint = 7241       // tell the user this is the last face attempt before a lock
var ACCOUNT_LOCKED uint = 7231             // tell the user sign in is locked and when to retry
var BACKUP_CODE_ISSUED uint = 9151         // show the backup code once and ask the user to store it
