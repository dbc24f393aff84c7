package ml

import "strings"

const surveyCSV = `Timestamp,Age,Gender,Country,family_history,treatment,work_interfere,benefits,care_options,anonymity,leave
2014-08-27 11:29:31,37,Female,United States,No,Yes,Often,Yes,Not sure,Yes,Somewhat easy
2014-08-27 11:29:37,44,Male,United States,No,No,Rarely,Don't know,No,Don't know,Don't know
2014-08-27 11:29:44,32,Male,Canada,No,No,Rarely,No,No,Don't know,Somewhat difficult
2014-08-27 11:29:46,31,Male,United Kingdom,Yes,Yes,Often,No,Yes,No,Somewhat difficult
2014-08-27 11:30:22,31,Male,United States,No,No,Never,Yes,No,Don't know,Don't know
2014-08-27 11:31:22,33,Male,United States,Yes,No,Sometimes,Yes,Not sure,Don't know,Don't know
2014-08-27 11:31:50,35,Female,United States,Yes,Yes,Sometimes,No,No,No,Somewhat difficult
2014-08-27 11:32:05,39,Male,Canada,No,No,Never,No,Yes,Yes,Don't know
2014-08-27 11:32:39,42,Female,United States,Yes,Yes,Sometimes,Yes,Yes,No,Very difficult
2014-08-27 11:32:43,23,Male,Canada,No,No,NA,Don't know,No,Don't know,Don't know
2014-08-27 11:32:44,31,Male,United States,Yes,yes,Sometimes,Yes,Not sure,Yes,Somewhat easy
2014-08-27 11:32:49,29,Male,Bulgaria,No,NO,Never,Don't know,Not sure,Don't know,Don't know
`

func surveyReader() *strings.Reader {
	return strings.NewReader(surveyCSV)
}
