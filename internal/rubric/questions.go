package rubric

// Question texts are embedded verbatim from the exam handout so the
// model grades against exactly what the students saw.

const wnl8Q1Text = `
Question 1 (3 points) - Count_digits Function:

Part a) Write a function called Count_digits(string) that takes a string as input and
returns the number of digits in the string.
- The function must NOT read input from the user
- The function must NOT print anything
- The function must return an integer (the count of digits)

Part b) Write a script that:
- Asks the user to enter a sentence
- Calls Count_digits() with the user's input
- Prints the number of digits found in the sentence
`

const wnl8Q2Text = `
Question 2 (3 points) - Score Dictionary:

Write a Python program that:
1. Prompts the user to enter a comma-separated list of participant names
2. Prompts the user to enter a comma-separated list of their scores
3. Builds a dictionary with names as keys and scores as values
4. Prints the resulting dictionary
5. Determines and prints the top scorer with their score
`

const wnl10Q1Text = `
Question 1 (3 points) - drawTriangle Function:

Part a) Write a function called drawTriangle(n) that takes an integer n and prints
a triangle pattern of stars. For example, if n=5:
*****
****
***
**
*

The function only prints the pattern (no return value).
Assume n is always a positive integer.

Part b) Write a script that:
- Asks the user to enter a number
- Calls drawTriangle() with the user's input
- Displays the triangle pattern
`

const wnl10Q2Text = `
Question 2 (3 points) - commonElements Function:

Part a) Write a function called commonElements(list1, list2) that:
- Takes two lists as input
- Returns a list of distinct elements that appear in BOTH lists
- Returns an empty list if no common elements exist

Part b) Write a script that:
- Prompts user to enter two lists (space-separated values)
- Calls commonElements() with both lists
- Prints the common elements or an appropriate message if empty
`
